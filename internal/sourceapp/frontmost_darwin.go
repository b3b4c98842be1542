//go:build darwin

package sourceapp

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

static char* shotcast_frontmost_name(void) {
	@autoreleasepool {
		NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
		if (app == nil || app.localizedName == nil) {
			return NULL;
		}
		return strdup([app.localizedName UTF8String]);
	}
}
*/
import "C"

import "unsafe"

func frontmostApp() string {
	cs := C.shotcast_frontmost_name()
	if cs == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs)
}
