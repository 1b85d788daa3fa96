package heatshrink

import "github.com/op/go-logging"

// log traces state transitions at DEBUG. Instances sample the level when
// constructed or reset.
var log = logging.MustGetLogger("heatshrink")

func init() {
	// Applications raise this with logging.SetLevel or their own leveled backend.
	logging.SetLevel(logging.WARNING, "heatshrink")
}
