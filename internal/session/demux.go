package session

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/events"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/guard"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/logging"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/toolcall"
	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// audioMIMEPrefix marks the inline parts that are streamed out as raw audio.
const audioMIMEPrefix = "audio/pcm"

// demux splits a model turn's parts into binary audio, emitted immediately
// and in order, and the remaining structured parts, emitted as one content
// notification.
type demux struct {
	disp *events.Dispatcher
	sink logging.Sink
	conv toolcall.Convention
	send func(parts []wire.Part, turnComplete bool) error
}

func (d *demux) process(parts []wire.Part) {
	// Code-mode leakage skips normal emission entirely; the model gets a
	// corrective message and the caller still sees it as content instead of
	// silently losing the turn.
	if marker, hit := guard.ScanJSON(parts); hit {
		d.sink.Log(logging.NewEntry("server.content.blocked", marker))
		corrective := []wire.Part{{Text: d.conv.CorrectiveText()}}
		if err := d.send(corrective, true); err != nil {
			d.sink.Log(logging.NewEntry("client.sendError", err.Error()))
		}
		d.disp.Content.Publish(corrective)
		return
	}

	rest := make([]wire.Part, 0, len(parts))
	for _, p := range parts {
		if p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, audioMIMEPrefix) {
			buf, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				d.sink.Log(logging.NewEntry("server.audio.error", err.Error()))
				continue
			}
			d.disp.Audio.Publish(buf)
			d.sink.Log(logging.NewEntry("server.audio", fmt.Sprintf("buffer (%d)", len(buf))))
			continue
		}
		rest = append(rest, p)
	}

	if len(rest) == 0 {
		return
	}
	d.disp.Content.Publish(rest)
	d.sink.Log(logging.NewEntry("server.content", fmt.Sprintf("%d parts", len(rest))))
}
