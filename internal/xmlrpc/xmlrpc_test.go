package xmlrpc

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const loginResponse = `<?xml version="1.0" encoding="utf-8"?>
<methodResponse>
  <params>
    <param>
      <value>
        <struct>
          <member><name>token</name><value><string>abc123</string></value></member>
          <member><name>status</name><value><string>200 OK</string></value></member>
          <member><name>seconds</name><value><double>0.008</double></value></member>
        </struct>
      </value>
    </param>
  </params>
</methodResponse>`

const searchResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><struct>
<member><name>status</name><value>200 OK</value></member>
<member><name>data</name><value><array><data>
  <value><struct>
    <member><name>SubFileName</name><value><string>Movie.srt</string></value></member>
    <member><name>SubDownloadsCnt</name><value><string>42</string></value></member>
  </struct></value>
  <value><struct>
    <member><name>SubFileName</name><value><string>Movie.en.srt</string></value></member>
    <member><name>SubDownloadsCnt</name><value><int>7</int></value></member>
  </struct></value>
</data></array></value></member>
</struct></value></param></params></methodResponse>`

const faultResponse = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>4</int></value></member>
<member><name>faultString</name><value><string>Too many parameters.</string></value></member>
</struct></value></fault></methodResponse>`

func TestEncodeCall(t *testing.T) {
	Convey("When encoding a call", t, func() {
		data, err := EncodeCall("LogIn", "user", "p<ss", "en", 7, true, []map[string]any{{"query": "x"}})
		So(err, ShouldBeNil)

		doc := string(data)

		Convey("Then the method name should be present", func() {
			So(doc, ShouldContainSubstring, "<methodName>LogIn</methodName>")
		})

		Convey("Then text should be escaped", func() {
			So(doc, ShouldContainSubstring, "<string>p&lt;ss</string>")
		})

		Convey("Then scalars should be typed", func() {
			So(doc, ShouldContainSubstring, "<int>7</int>")
			So(doc, ShouldContainSubstring, "<boolean>1</boolean>")
		})

		Convey("Then nested values should be encoded", func() {
			So(doc, ShouldContainSubstring, "<array><data><value><struct><member><name>query</name><value><string>x</string></value></member></struct></value></data></array>")
		})

		Convey("Then there should be one param per argument", func() {
			So(strings.Count(doc, "<param>"), ShouldEqual, 6)
		})
	})

	Convey("When encoding an unsupported value", t, func() {
		_, err := EncodeCall("X", struct{}{})

		Convey("Then it should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDecodeResponse(t *testing.T) {
	Convey("Given a struct response", t, func() {
		v, err := DecodeResponse([]byte(loginResponse))
		So(err, ShouldBeNil)

		resp := Struct(v)

		Convey("Then members should be decoded", func() {
			So(String(resp["token"]), ShouldEqual, "abc123")
			So(String(resp["status"]), ShouldEqual, "200 OK")
			So(resp["seconds"], ShouldEqual, 0.008)
		})
	})

	Convey("Given a response with an array of structs", t, func() {
		v, err := DecodeResponse([]byte(searchResponse))
		So(err, ShouldBeNil)

		resp := Struct(v)

		Convey("Then untyped values should be strings", func() {
			So(resp["status"], ShouldEqual, "200 OK")
		})

		Convey("Then the array should keep its order", func() {
			data := Array(resp["data"])
			So(data, ShouldHaveLength, 2)
			So(String(Struct(data[0])["SubFileName"]), ShouldEqual, "Movie.srt")
			So(Int(Struct(data[0])["SubDownloadsCnt"]), ShouldEqual, 42)
			So(Int(Struct(data[1])["SubDownloadsCnt"]), ShouldEqual, 7)
		})
	})

	Convey("Given a fault", t, func() {
		_, err := DecodeResponse([]byte(faultResponse))

		Convey("Then a Fault should be returned", func() {
			var fault *Fault
			So(errors.As(err, &fault), ShouldBeTrue)
			So(fault.Code, ShouldEqual, 4)
			So(fault.String, ShouldEqual, "Too many parameters.")
		})
	})

	Convey("Given a document that is not a response", t, func() {
		_, err := DecodeResponse([]byte("<html></html>"))

		Convey("Then it should be malformed", func() {
			So(errors.Is(err, ErrMalformed), ShouldBeTrue)
		})
	})
}
