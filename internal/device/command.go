package device

import "fmt"

// Dispatch executes a named role-specific command on a device. Commands run
// as one log transaction and arm the one-shot busy flag, unlike plain
// setting writes. Both the HTTP API and the MQTT command consumer route
// through here so the two surfaces stay in lockstep.
//
// Parameters arrive as decoded JSON, so numbers are float64.
func Dispatch(d Device, command string, params map[string]any) error {
	switch dev := d.(type) {
	case *XYStage:
		switch command {
		case "move":
			x, okX := intParam(params, "x")
			y, okY := intParam(params, "y")
			if !okX || !okY {
				return fmt.Errorf("%w: move requires integer x and y", ErrBadParameters)
			}
			return dev.SetPositionSteps(x, y)
		case "home":
			return dev.Home()
		case "stop":
			return dev.Stop()
		case "set_origin":
			return dev.SetOrigin()
		}
	case *LinearStage:
		switch command {
		case "move":
			um, ok := floatParam(params, "position_um")
			if !ok {
				return fmt.Errorf("%w: move requires position_um", ErrBadParameters)
			}
			return dev.SetPositionUm(um)
		case "home":
			return dev.Home()
		case "stop":
			return dev.Stop()
		case "set_origin":
			return dev.SetOrigin()
		}
	case *Autofocus:
		switch command {
		case "full_focus":
			return dev.FullFocus()
		case "incremental_focus":
			return dev.IncrementalFocus()
		case "set_continuous":
			enabled, ok := boolParam(params, "enabled")
			if !ok {
				return fmt.Errorf("%w: set_continuous requires enabled", ErrBadParameters)
			}
			return dev.SetContinuousFocus(enabled)
		case "set_offset":
			um, ok := floatParam(params, "offset_um")
			if !ok {
				return fmt.Errorf("%w: set_offset requires offset_um", ErrBadParameters)
			}
			return dev.SetOffsetUm(um)
		}
	case *Shutter:
		switch command {
		case "open":
			return dev.SetOpen(true)
		case "close":
			return dev.SetOpen(false)
		}
	case *Camera:
		switch command {
		case "snap":
			return dev.SnapImage()
		case "stop_sequence":
			return dev.StopSequence()
		}
	}
	return fmt.Errorf("%w: %q for %s", ErrUnknownCommand, command, d.Kind())
}

func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key].(float64)
	return v, ok
}

func intParam(params map[string]any, key string) (int64, bool) {
	v, ok := params[key].(float64)
	return int64(v), ok
}

func boolParam(params map[string]any, key string) (bool, bool) {
	v, ok := params[key].(bool)
	return v, ok
}
