//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #include <stdlib.h>
// #include <string.h>
// #import <Cocoa/Cocoa.h>
//
// static long shotcast_change_count() {
//     return (long)[[NSPasteboard generalPasteboard] changeCount];
// }
//
// static int shotcast_has_type(const char *type) {
//     @autoreleasepool {
//         NSString *t = [NSString stringWithUTF8String:type];
//         return [[NSPasteboard generalPasteboard] availableTypeFromArray:@[t]] != nil;
//     }
// }
//
// static int shotcast_has_image() {
//     @autoreleasepool {
//         return [[NSPasteboard generalPasteboard]
//             canReadItemWithDataConformingToTypes:[NSImage imageTypes]] ? 1 : 0;
//     }
// }
//
// static char *shotcast_string_for_type(const char *type) {
//     @autoreleasepool {
//         NSString *t = [NSString stringWithUTF8String:type];
//         NSString *s = [[NSPasteboard generalPasteboard] stringForType:t];
//         if (s == nil) {
//             return NULL;
//         }
//         return strdup([s UTF8String]);
//     }
// }
import "C"

import (
	"log/slog"
	"unsafe"

	"golang.design/x/clipboard"
)

// Uniform type identifiers for the pasteboard types shotcast reads.
const (
	utiURL     = "public.url"
	utiFileURL = "public.file-url"
	utiString  = "public.utf8-plain-text"
)

type darwinBackend struct{}

// New returns the macOS clipboard backend. clipboard.Init is called here
// rather than in init() so that CLI sub-commands that never watch don't log
// spurious warnings.
func New() Source {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) ChangeCount() int64 { return int64(C.shotcast_change_count()) }

func (b *darwinBackend) Kinds() []Kind {
	var kinds []Kind
	if hasType(utiURL) {
		kinds = append(kinds, KindURL)
	}
	if hasType(utiFileURL) {
		kinds = append(kinds, KindFileURL)
	}
	if C.shotcast_has_image() != 0 {
		kinds = append(kinds, KindImage)
	}
	if hasType(utiString) {
		kinds = append(kinds, KindText)
	}
	return kinds
}

func (b *darwinBackend) Read(kind Kind) ([]byte, error) {
	switch kind {
	case KindURL:
		return stringForType(utiURL), nil
	case KindFileURL:
		return stringForType(utiFileURL), nil
	case KindImage:
		return clipboard.Read(clipboard.FmtImage), nil
	case KindText:
		return clipboard.Read(clipboard.FmtText), nil
	default:
		return nil, nil
	}
}

func (b *darwinBackend) Close() {}

func hasType(uti string) bool {
	cs := C.CString(uti)
	defer C.free(unsafe.Pointer(cs))
	return C.shotcast_has_type(cs) != 0
}

func stringForType(uti string) []byte {
	cs := C.CString(uti)
	defer C.free(unsafe.Pointer(cs))
	out := C.shotcast_string_for_type(cs)
	if out == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(out))
	return []byte(C.GoString(out))
}
