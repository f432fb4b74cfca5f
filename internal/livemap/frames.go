package livemap

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/view"
)

// Server→client frame types.
const (
	FrameConfig   = "config"
	FrameCommand  = "command"
	FrameState    = "state"
	FrameTooltip  = "tooltip"
	FrameNavigate = "navigate"
)

// Command ops carried by command frames.
const (
	OpAddSource = "addSource"
	OpSetData   = "setData"
	OpAddLayer  = "addLayer"
	OpSetLayout = "setLayout"
	OpFlyTo     = "flyTo"
	OpFitBounds = "fitBounds"
	OpResize    = "resize"
)

// OutFrame is a server→client message.
type OutFrame struct {
	Type    string `json:"type"`
	Op      string `json:"op,omitempty"`
	Payload any    `json:"payload"`
}

// InFrame is a client→server message. Fields are populated per type.
type InFrame struct {
	Type string `json:"type"`

	Message      string  `json:"message,omitempty"`
	Zoom         float64 `json:"zoom,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Layer        string  `json:"layer,omitempty"`
	ID           string  `json:"id,omitempty"`
	Division     *string `json:"division,omitempty"`
	DC           *string `json:"dc,omitempty"`
	OnlyAssigned *bool   `json:"only_assigned,omitempty"`
	Period       string  `json:"period,omitempty"`
}

// DecodeEvent parses a client frame into a session event.
func DecodeEvent(data []byte) (view.Event, error) {
	var f InFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "livemap: decode frame")
	}
	switch f.Type {
	case "style.load":
		return view.StyleLoaded{}, nil
	case "load":
		return view.Loaded{}, nil
	case "error":
		return view.EngineError{Message: f.Message}, nil
	case "zoomend":
		return view.ZoomEnd{Zoom: f.Zoom}, nil
	case "resize":
		return view.Resized{Width: f.Width, Height: f.Height}, nil
	case "hover":
		return view.Hover{Layer: f.Layer, ID: f.ID}, nil
	case "hoverend":
		return view.HoverEnd{}, nil
	case "click":
		return view.Click{Layer: f.Layer, ID: f.ID}, nil
	case "filter":
		return view.FilterChange{Division: f.Division, DC: f.DC, OnlyAssigned: f.OnlyAssigned}, nil
	case "period":
		return view.PeriodChange{Period: f.Period}, nil
	case "reset":
		return view.Reset{}, nil
	default:
		return nil, eris.Errorf("livemap: unknown frame type %q", f.Type)
	}
}

type flyToPayload struct {
	Seq      uint64     `json:"seq"`
	Center   [2]float64 `json:"center"`
	Zoom     float64    `json:"zoom"`
	Pitch    float64    `json:"pitch"`
	Bearing  float64    `json:"bearing"`
	Duration int        `json:"duration"`
}

type fitBoundsPayload struct {
	Seq      uint64        `json:"seq"`
	Bounds   [2][2]float64 `json:"bounds"`
	MaxZoom  float64       `json:"maxZoom,omitempty"`
	Pitch    float64       `json:"pitch"`
	Bearing  float64       `json:"bearing"`
	Padding  int           `json:"padding"`
	Duration int           `json:"duration"`
}

func cameraPayload(cmd camera.Command) any {
	if cmd.Kind == camera.FlyTo {
		return flyToPayload{
			Seq:      cmd.Seq,
			Center:   [2]float64{cmd.Center.Lon(), cmd.Center.Lat()},
			Zoom:     cmd.Zoom,
			Pitch:    cmd.Pitch,
			Bearing:  cmd.Bearing,
			Duration: cmd.Duration,
		}
	}
	return fitBoundsPayload{
		Seq: cmd.Seq,
		Bounds: [2][2]float64{
			{cmd.Bounds.Min.Lon(), cmd.Bounds.Min.Lat()},
			{cmd.Bounds.Max.Lon(), cmd.Bounds.Max.Lat()},
		},
		MaxZoom:  cmd.MaxZoom,
		Pitch:    cmd.Pitch,
		Bearing:  cmd.Bearing,
		Padding:  cmd.Padding,
		Duration: cmd.Duration,
	}
}
