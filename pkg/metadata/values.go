package metadata

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// exifTimeLayout is the EXIF DateTime layout.
const exifTimeLayout = "2006:01:02 15:04:05"

// jsonValue converts a decoded tag value into something encoding/json can always write.
// Rationals become floats, text loses trailing NULs, raw bytes become UTF-8 with
// replacement characters, integers become decimal strings and sequences become lists.
func jsonValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return cleanText(val)
	case []byte:
		return cleanText(string(val))
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(exifTimeLayout)
	case interface{ Float64() float64 }:
		return finite(val.Float64())
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = jsonValue(iter.Value().Interface())
		}
		return out
	}
	return fmt.Sprint(v)
}

func cleanText(s string) string {
	return strings.ToValidUTF8(strings.TrimRight(s, "\x00"), "\uFFFD")
}

// finite maps NaN and infinities (zero denominators) to null.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// collapse returns the single element of a one-valued tag, or the list.
func collapse(vals []any) any {
	if len(vals) == 1 {
		return vals[0]
	}
	return vals
}

// toFloat reads a number out of a serialized tag value.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case interface{ Float64() float64 }:
		return val.Float64(), true
	}
	return 0, false
}
