package util

import (
	"io"
	"reflect"
)

// CloseWithErr closes a resource on paths where the caller cannot act on a
// close failure, reporting it through Errorf instead of returning it. nil and
// typed-nil closers are no-ops so deferred cleanup is safe before the
// resource exists.
func CloseWithErr(closer io.Closer, name string) {
	if closer == nil {
		return
	}
	if val := reflect.ValueOf(closer); val.Kind() == reflect.Ptr && val.IsNil() {
		return
	}
	if err := closer.Close(); err != nil {
		if name == "" {
			name = "resource"
		}
		Errorf("close %s: %v", name, err)
	}
}
