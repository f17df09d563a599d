package media

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKind(t *testing.T) {
	Convey("Kind", t, func() {
		Convey("Should round trip through its name", func() {
			for k := range kindNames {
				So(ParseKind(k.String()), ShouldEqual, k)
			}
		})

		Convey("Should be guessed from MIME types", func() {
			So(KindFromMIME("audio/mpeg"), ShouldEqual, Audio)
			So(KindFromMIME("video/mp4"), ShouldEqual, Video)
			So(KindFromMIME("image/jpeg"), ShouldEqual, Image)
			So(KindFromMIME("application/x-subrip"), ShouldEqual, Text)
			So(KindFromMIME("application/octet-stream"), ShouldEqual, Unknown)
		})

		Convey("Should encode as a string in JSON", func() {
			data, err := json.Marshal(&Media{ID: "1", Kind: Video})
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"kind":"video"`)

			var m Media
			So(json.Unmarshal(data, &m), ShouldBeNil)
			So(m.Kind, ShouldEqual, Video)
		})
	})
}

func TestKeys(t *testing.T) {
	Convey("Given a partially filled item", t, func() {
		m := &Media{ID: "42", Title: "Night", Duration: time.Minute, Kind: Video}

		Convey("Has should reflect set fields", func() {
			So(m.Has(KeyID), ShouldBeTrue)
			So(m.Has(KeyTitle), ShouldBeTrue)
			So(m.Has(KeyDuration), ShouldBeTrue)
			So(m.Has(KeyURL), ShouldBeFalse)
			So(m.Has(KeyChildCount), ShouldBeFalse)
		})

		Convey("Missing should keep the requested order", func() {
			So(m.Missing([]Key{KeyURL, KeyTitle, KeyHash}), ShouldResemble, []Key{KeyURL, KeyHash})
		})

		Convey("Every declared key should be answerable", func() {
			for _, k := range Keys {
				So(func() { m.Has(k) }, ShouldNotPanic)
			}
		})
	})

	Convey("ParseKey", t, func() {
		Convey("Should accept known keys case-insensitively", func() {
			k, err := ParseKey(" Title ")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, KeyTitle)
		})

		Convey("Should suggest close matches", func() {
			_, err := ParseKey("tittle")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `did you mean "title"`)
		})

		Convey("ParseKeys should drop duplicates", func() {
			keys, err := ParseKeys([]string{"url", "url", "size"})
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []Key{KeyURL, KeySize})
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given two items", t, func() {
		m := &Media{ID: "1", Title: "kept"}
		other := &Media{ID: "2", Title: "ignored", URL: "https://x", Duration: time.Second, Kind: Audio}

		Convey("Merge should only fill empty fields", func() {
			m.Merge(other)
			So(m.ID, ShouldEqual, "1")
			So(m.Title, ShouldEqual, "kept")
			So(m.URL, ShouldEqual, "https://x")
			So(m.Duration, ShouldEqual, time.Second)
			So(m.Kind, ShouldEqual, Audio)
		})
	})
}
