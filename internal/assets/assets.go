// Package assets finds and loads the optional photo and video files. Every
// load runs in the background; a missing or broken file is logged and
// skipped.
package assets

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Fixed asset names inside the assets directory.
const (
	HeroName  = "hero.jpg"
	VideoName = "fireworks.mp4"
)

var memoryPattern = regexp.MustCompile(`^memory_(\d+)\.(jpe?g|png)$`)

// Manifest lists the asset files found in a directory.
type Manifest struct {
	Dir string
	// Hero is empty when no hero photo exists.
	Hero     string
	Memories []string
	Video    string
}

// Discover scans dir. A missing directory yields an empty manifest.
func Discover(dir string) (Manifest, error) {
	m := Manifest{Dir: dir}
	if dir == "" {
		return m, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("read assets dir: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	var memories []numbered

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(dir, name)
		switch {
		case name == HeroName:
			m.Hero = path
		case name == VideoName:
			m.Video = path
		default:
			if sub := memoryPattern.FindStringSubmatch(name); sub != nil {
				n, _ := strconv.Atoi(sub[1])
				memories = append(memories, numbered{n, path})
			}
		}
	}

	sort.Slice(memories, func(i, j int) bool {
		if memories[i].n != memories[j].n {
			return memories[i].n < memories[j].n
		}
		return memories[i].path < memories[j].path
	})
	for _, mem := range memories {
		m.Memories = append(m.Memories, mem.path)
	}
	return m, nil
}

// ImageLoader decodes an image file, bounding its longest side.
type ImageLoader interface {
	LoadImage(path string, maxSide int) (image.Image, error)
}

// Library holds the futures for every discovered asset.
type Library struct {
	manifest Manifest
	hero     *Future[image.Image]
	memories []*Future[image.Image]
}

// Load starts decoding every image in m and returns immediately.
func Load(m Manifest, loader ImageLoader, maxSide int) *Library {
	lib := &Library{manifest: m}

	load := func(path string) *Future[image.Image] {
		return Go(func() (image.Image, error) {
			img, err := loader.LoadImage(path, maxSide)
			if err != nil {
				log.Printf("asset %s skipped: %v", filepath.Base(path), err)
				return nil, err
			}
			return img, nil
		})
	}

	if m.Hero != "" {
		lib.hero = load(m.Hero)
	} else {
		lib.hero = Resolved[image.Image](nil, fmt.Errorf("%s: %w", HeroName, os.ErrNotExist))
	}
	for _, p := range m.Memories {
		lib.memories = append(lib.memories, load(p))
	}
	return lib
}

// Manifest returns the discovered files.
func (l *Library) Manifest() Manifest { return l.manifest }

// MemoryCount returns the number of discovered memory photos.
func (l *Library) MemoryCount() int {
	if l == nil {
		return 0
	}
	return len(l.memories)
}

// Hero returns the hero photo once it has loaded.
func (l *Library) Hero() (image.Image, bool) {
	if l == nil {
		return nil, false
	}
	img := l.hero.Or(nil)
	return img, img != nil
}

// Memory returns memory photo i once it has loaded.
func (l *Library) Memory(i int) (image.Image, bool) {
	if l == nil || i < 0 || i >= len(l.memories) {
		return nil, false
	}
	img := l.memories[i].Or(nil)
	return img, img != nil
}

// Loaded returns how many images have finished loading successfully.
func (l *Library) Loaded() int {
	if l == nil {
		return 0
	}
	n := 0
	if _, ok := l.Hero(); ok {
		n++
	}
	for i := range l.memories {
		if _, ok := l.Memory(i); ok {
			n++
		}
	}
	return n
}
