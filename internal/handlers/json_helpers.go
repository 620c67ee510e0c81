package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// JSONResponse sends a JSON response and ensures slices are never null
//
// Nil slices are encoded as "[]" instead of "null" so that frontends
// expecting arrays don't have to special-case empty lists. Always use this
// function instead of json.NewEncoder(w).Encode().
func JSONResponse(w http.ResponseWriter, data any) error {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalized)
}

// normalizeSlices recursively ensures all nil slices become empty slices.
// Types with their own JSON encoding (time.Time, decimal.Decimal) are kept
// as-is.
func normalizeSlices(data any) any {
	if data == nil {
		return data
	}
	normalized := normalizeValue(reflect.ValueOf(data))
	return normalized.Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	if v.Type().Implements(marshalerType) {
		return v
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Type().Elem().Implements(marshalerType) {
			return v
		}
		result := reflect.New(v.Type().Elem())
		result.Elem().Set(normalizeValue(v.Elem()))
		return result

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		return normalizeValue(v.Elem())

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			result.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return result

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		result := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			result.SetMapIndex(iter.Key(), normalizeValue(iter.Value()))
		}
		return result

	case reflect.Struct:
		// Copy first so unexported fields survive, then replace exported
		// container fields.
		result := reflect.New(v.Type()).Elem()
		result.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			switch v.Field(i).Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct, reflect.Map, reflect.Interface:
				normalized := normalizeValue(v.Field(i))
				if normalized.Type() == result.Field(i).Type() || result.Field(i).Kind() == reflect.Interface {
					result.Field(i).Set(normalized)
				}
			}
		}
		return result
	}

	return v
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(normalizeSlices(payload))
}

// decodeJSON reads a request body of at most maxBodyBytes into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
