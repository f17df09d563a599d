// Package xmlrpc encodes method calls and decodes responses of the XML-RPC protocol.
//
// Values map to Go as follows: int and i4 to int, boolean to bool, double to float64,
// string and untyped values to string, dateTime.iso8601 to time.Time, base64 to []byte,
// struct to map[string]any, array to []any and nil to nil.
package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "20060102T15:04:05"

// ErrMalformed is returned for documents that are not XML-RPC responses.
var ErrMalformed = errors.New("malformed xml-rpc response")

// Fault is a protocol level error returned by the server.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xml-rpc fault %d: %s", f.Code, f.String)
}

// EncodeCall renders a methodCall document.
func EncodeCall(method string, params ...any) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(&buf, []byte(method)); err != nil {
		return nil, err
	}
	buf.WriteString("</methodName><params>")

	for i, p := range params {
		buf.WriteString("<param>")
		if err := encodeValue(&buf, p); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		buf.WriteString("</param>")
	}

	buf.WriteString("</params></methodCall>")
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	buf.WriteString("<value>")

	switch v := v.(type) {
	case nil:
		buf.WriteString("<nil/>")
	case string:
		buf.WriteString("<string>")
		if err := xml.EscapeText(buf, []byte(v)); err != nil {
			return err
		}
		buf.WriteString("</string>")
	case int:
		fmt.Fprintf(buf, "<int>%d</int>", v)
	case int64:
		fmt.Fprintf(buf, "<int>%d</int>", v)
	case uint32:
		fmt.Fprintf(buf, "<int>%d</int>", v)
	case bool:
		if v {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case float64:
		fmt.Fprintf(buf, "<double>%s</double>", strconv.FormatFloat(v, 'f', -1, 64))
	case time.Time:
		fmt.Fprintf(buf, "<dateTime.iso8601>%s</dateTime.iso8601>", v.UTC().Format(dateLayout))
	case []byte:
		fmt.Fprintf(buf, "<base64>%s</base64>", base64.StdEncoding.EncodeToString(v))
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return encodeStruct(buf, m)
	case map[string]any:
		return encodeStruct(buf, v)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return encodeArray(buf, items)
	case []map[string]any:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return encodeArray(buf, items)
	case []any:
		return encodeArray(buf, v)
	default:
		return fmt.Errorf("unsupported type %T", v)
	}

	buf.WriteString("</value>")
	return nil
}

func encodeStruct(buf *bytes.Buffer, m map[string]any) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	buf.WriteString("<struct>")
	for _, name := range names {
		buf.WriteString("<member><name>")
		if err := xml.EscapeText(buf, []byte(name)); err != nil {
			return err
		}
		buf.WriteString("</name>")
		if err := encodeValue(buf, m[name]); err != nil {
			return fmt.Errorf("member %s: %w", name, err)
		}
		buf.WriteString("</member>")
	}
	buf.WriteString("</struct></value>")
	return nil
}

func encodeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteString("<array><data>")
	for i, item := range items {
		if err := encodeValue(buf, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	buf.WriteString("</data></array></value>")
	return nil
}

type value struct {
	Int     *string   `xml:"int"`
	I4      *string   `xml:"i4"`
	Boolean *string   `xml:"boolean"`
	String  *string   `xml:"string"`
	Double  *string   `xml:"double"`
	Date    *string   `xml:"dateTime.iso8601"`
	Base64  *string   `xml:"base64"`
	Struct  *object   `xml:"struct"`
	Array   *array    `xml:"array"`
	Nil     *struct{} `xml:"nil"`
	Text    string    `xml:",chardata"`
}

type object struct {
	Members []member `xml:"member"`
}

type member struct {
	Name  string `xml:"name"`
	Value value  `xml:"value"`
}

type array struct {
	Data []value `xml:"data>value"`
}

type methodResponse struct {
	XMLName xml.Name `xml:"methodResponse"`
	Params  []value  `xml:"params>param>value"`
	Fault   *value   `xml:"fault>value"`
}

// DecodeResponse returns the single result of a methodResponse document.
// A fault is returned as *Fault.
func DecodeResponse(data []byte) (any, error) {
	var resp methodResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if resp.Fault != nil {
		v, err := resp.Fault.decode()
		if err != nil {
			return nil, err
		}
		f := Struct(v)
		return nil, &Fault{Code: Int(f["faultCode"]), String: String(f["faultString"])}
	}

	if len(resp.Params) == 0 {
		return nil, fmt.Errorf("%w: no params", ErrMalformed)
	}

	return resp.Params[0].decode()
}

func (v *value) decode() (any, error) {
	switch {
	case v.Int != nil:
		return parseInt(*v.Int)
	case v.I4 != nil:
		return parseInt(*v.I4)
	case v.Boolean != nil:
		switch strings.TrimSpace(*v.Boolean) {
		case "1":
			return true, nil
		case "0":
			return false, nil
		default:
			return nil, fmt.Errorf("%w: boolean %q", ErrMalformed, *v.Boolean)
		}
	case v.String != nil:
		return *v.String, nil
	case v.Double != nil:
		f, err := strconv.ParseFloat(strings.TrimSpace(*v.Double), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return f, nil
	case v.Date != nil:
		t, err := time.Parse(dateLayout, strings.TrimSpace(*v.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return t, nil
	case v.Base64 != nil:
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*v.Base64))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return b, nil
	case v.Struct != nil:
		m := make(map[string]any, len(v.Struct.Members))
		for _, mem := range v.Struct.Members {
			decoded, err := mem.Value.decode()
			if err != nil {
				return nil, err
			}
			m[mem.Name] = decoded
		}
		return m, nil
	case v.Array != nil:
		items := make([]any, 0, len(v.Array.Data))
		for i := range v.Array.Data {
			decoded, err := v.Array.Data[i].decode()
			if err != nil {
				return nil, err
			}
			items = append(items, decoded)
		}
		return items, nil
	case v.Nil != nil:
		return nil, nil
	default:
		return v.Text, nil
	}
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return n, nil
}
