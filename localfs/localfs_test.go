package localfs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

func init() {
	filesystem.SetMemMapFs()
}

func write(path string, size int) {
	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := fs.WriteFile(path, make([]byte, size), 0o644); err != nil {
		panic(err)
	}
}

func TestLocalfs(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(string(filepath.Separator), "media", "library")

	write(filepath.Join(root, "Movies", "Alien.mkv"), 300)
	write(filepath.Join(root, "Movies", "Aliens.mp4"), 200)
	write(filepath.Join(root, "Movies", "notes.docx"), 10)
	write(filepath.Join(root, "Music", "Album", "01 Intro.mp3"), 100)
	write(filepath.Join(root, "Music", "Album", "cover.jpg"), 20)
	write(filepath.Join(root, ".cache", "thumb.png"), 5)
	write(filepath.Join(root, "song.flac"), 50)

	Convey("Given a source with one root", t, func() {
		s := New(Config{Roots: []string{root, root + string(filepath.Separator), ""}})

		Convey("Roots are cleaned and deduplicated", func() {
			So(s.Roots(), ShouldResemble, []string{root})
		})

		Convey("The source root lists the roots", func() {
			items, err := source.BrowseAll(ctx, s, nil, source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(items[0].ID, ShouldEqual, root)
			So(items[0].Kind, ShouldEqual, media.Container)
		})

		Convey("A directory lists folders and media sorted by name", func() {
			items, err := source.BrowseAll(ctx, s, media.NewContainer(ID, root, ""), source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 3)
			So(items[0].Title, ShouldEqual, "Movies")
			So(items[1].Title, ShouldEqual, "Music")
			So(items[2].Title, ShouldEqual, "song")
			So(items[2].Kind, ShouldEqual, media.Audio)
			So(items[2].MIME, ShouldEqual, "audio/flac")
			So(items[2].Size, ShouldEqual, 50)
		})

		Convey("Files that are not media are skipped", func() {
			items, err := source.BrowseAll(ctx, s, media.NewContainer(ID, filepath.Join(root, "Movies"), ""), source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(items[0].Kind, ShouldEqual, media.Video)
			So(items[0].URL, ShouldEqual, "file://"+filepath.ToSlash(filepath.Join(root, "Movies", "Alien.mkv")))
		})

		Convey("Paths outside the roots are refused", func() {
			_, err := source.BrowseAll(ctx, s, media.NewContainer(ID, filepath.Join(root, ".."), ""), source.Options{Count: 10})
			So(errors.Is(err, ErrOutsideRoots), ShouldBeTrue)
			So(s.MayResolve(&media.Media{Source: ID, ID: "/etc/passwd"}, nil), ShouldBeFalse)
		})

		Convey("Search walks subdirectories", func() {
			items, err := source.SearchAll(ctx, s, "alien", source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(items[0].Title, ShouldEqual, "Alien")
			So(items[1].Title, ShouldEqual, "Aliens")

			items, err = source.SearchAll(ctx, s, "intro", source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 1)
			So(items[0].ID, ShouldEqual, filepath.Join(root, "Music", "Album", "01 Intro.mp3"))
		})

		Convey("Hidden entries are not searched", func() {
			items, err := source.SearchAll(ctx, s, "thumb", source.Options{Count: 10})
			So(err, ShouldBeNil)
			So(items, ShouldBeEmpty)
		})

		Convey("Resolve fills in file details", func() {
			m := &media.Media{Source: ID, ID: filepath.Join(root, "Music", "Album")}
			So(s.MayResolve(m, nil), ShouldBeTrue)
			So(s.Resolve(ctx, m, nil), ShouldBeNil)
			So(m.Kind, ShouldEqual, media.Container)
			So(m.ChildCount, ShouldEqual, 2)

			m = &media.Media{Source: ID, ID: filepath.Join(root, "Movies", "Alien.mkv")}
			So(s.Resolve(ctx, m, nil), ShouldBeNil)
			So(m.Size, ShouldEqual, 300)
			So(m.MIME, ShouldEqual, "video/x-matroska")
			So(m.Title, ShouldEqual, "Alien")
		})
	})

	Convey("Given a video of 128 KiB", t, func() {
		data := make([]byte, 2*hashChunk)
		data[0] = 1
		path := filepath.Join(root, "Movies", "Clip.mp4")
		So(filesystem.API().WriteFile(path, data, 0o644), ShouldBeNil)

		Convey("Its movie hash sums the size and both chunks", func() {
			hash, err := Hash(path)
			So(err, ShouldBeNil)
			So(hash, ShouldEqual, "0000000000020001")
		})

		Convey("Resolve computes the hash only when asked", func() {
			s := New(Config{Roots: []string{root}})

			m := &media.Media{Source: ID, ID: path}
			So(s.Resolve(ctx, m, nil), ShouldBeNil)
			So(m.Hash, ShouldBeEmpty)

			So(s.Resolve(ctx, m, []media.Key{media.KeyHash}), ShouldBeNil)
			So(m.Hash, ShouldEqual, "0000000000020001")
		})

		Convey("Describe works outside of any root", func() {
			m, err := Describe(path)
			So(err, ShouldBeNil)
			So(m.Source, ShouldEqual, ID)
			So(m.Title, ShouldEqual, "Clip")
			So(m.Kind, ShouldEqual, media.Video)
			So(m.Hash, ShouldEqual, "0000000000020001")
		})

		Convey("Small files cannot be hashed", func() {
			_, err := Hash(filepath.Join(root, "song.flac"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a source showing hidden files", t, func() {
		s := New(Config{Roots: []string{root}, ShowHidden: true})

		items, err := source.SearchAll(ctx, s, "thumb", source.Options{Count: 10})
		So(err, ShouldBeNil)
		So(items, ShouldHaveLength, 1)
	})
}
