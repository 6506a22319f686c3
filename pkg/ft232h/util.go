package ft232h

import (
	"fmt"

	"github.com/yunginnanet/ft232h"
)

// vidPid formats the USB IDs as four hex digits each, "0403" and "6014"
// for a stock FT232H.
func (ft *FT232H) vidPid() (vid string, pid string) {
	return hexID(uint32(ft.VID())), hexID(uint32(ft.PID()))
}

func hexID(id uint32) string {
	return fmt.Sprintf("%04x", id&0xFFFF)
}

func emptyMask(mask *ft232h.Mask) bool {
	return mask == nil || (mask.Serial == "" && mask.PID == "" && mask.VID == "" && mask.Desc == "" && mask.Index == "")
}
