package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})

		Convey("Should accept a custom backend", func() {
			SetFs(afero.NewReadOnlyFs(afero.NewMemMapFs()))
			So(API().Name(), ShouldEqual, "ReadOnlyFilter")
		})
	})
}

func TestGacheFs(t *testing.T) {
	Convey("Given an in-memory backend", t, func() {
		SetMemMapFs()
		fs := GacheFs{}

		Convey("Files written through GacheFs should be visible to API", func() {
			So(fs.MkdirAll("/cache", os.ModePerm), ShouldBeNil)

			f, err := fs.OpenFile("/cache/x.json", os.O_CREATE|os.O_WRONLY, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			data, err := API().ReadFile("/cache/x.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "{}")
		})
	})
}
