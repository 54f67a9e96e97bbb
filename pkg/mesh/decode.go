package mesh

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
	pb "github.com/kabili207/meshtastic-go/core/proto"
	"google.golang.org/protobuf/proto"
)

// Decoder turns a raw bus payload into a Packet, or reports that the payload
// is not in its format. Decoders never return errors: a payload either
// decodes or is skipped.
type Decoder interface {
	Name() string
	Decode(payload []byte) (*Packet, bool)
}

// NewDecoders returns the decoder chain in trial order: text/JSON first,
// then the binary service envelope.
func NewDecoders() []Decoder {
	return []Decoder{jsonDecoder{}, protoDecoder{}}
}

// DecodePayload runs the decoder chain over a payload. Both decoders
// failing is an expected, non-exceptional outcome (logged at debug level by
// the caller).
func DecodePayload(decoders []Decoder, payload []byte) (*Packet, bool) {
	for _, d := range decoders {
		if pkt, ok := d.Decode(payload); ok {
			return pkt, true
		}
	}
	return nil, false
}

// jsonDecoder parses the Meshtastic MQTT JSON uplink format. The shape is
// loose: sender may be numeric or a "!hex" string, the port numeric or
// symbolic, and the text payload nested at either of two depths.
type jsonDecoder struct{}

type rawJSONPacket struct {
	From        any             `mapstructure:"from"`
	Sender      any             `mapstructure:"sender"`
	HopLimit    any             `mapstructure:"hop_limit"`
	HopLimitAlt any             `mapstructure:"hopLimit"`
	Portnum     any             `mapstructure:"portnum"`
	Decoded     *rawJSONDecoded `mapstructure:"decoded"`
}

type rawJSONDecoded struct {
	Portnum any    `mapstructure:"portnum"`
	Text    string `mapstructure:"text"`
	Payload any    `mapstructure:"payload"`
}

func (jsonDecoder) Name() string { return "json" }

func (jsonDecoder) Decode(payload []byte) (*Packet, bool) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	m := map[string]any{}
	if err := dec.Decode(&m); err != nil {
		return nil, false
	}

	var raw rawJSONPacket
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil || md.Decode(m) != nil {
		return nil, false
	}

	pkt := &Packet{}
	if s := anyToString(raw.From); s != "" {
		pkt.SenderID = s
	} else if s := anyToString(raw.Sender); s != "" {
		pkt.SenderID = s
	}
	if pkt.SenderID == "" {
		return nil, false
	}

	if h := anyToUint32(raw.HopLimit); h != nil {
		pkt.HopLimit = h
	} else {
		pkt.HopLimit = anyToUint32(raw.HopLimitAlt)
	}

	portVal := raw.Portnum
	if raw.Decoded != nil && raw.Decoded.Portnum != nil {
		portVal = raw.Decoded.Portnum
	}
	pkt.Port = anyToPortRef(portVal)

	if raw.Decoded != nil {
		if raw.Decoded.Text != "" {
			pkt.Text = raw.Decoded.Text
		}
		if pkt.Text == "" {
			if pm, ok := raw.Decoded.Payload.(map[string]any); ok {
				if t, ok := pm["text"].(string); ok {
					pkt.Text = t
				}
			}
		}
	}

	return pkt, true
}

// protoDecoder parses a binary Meshtastic ServiceEnvelope. Only the decoded
// payload variant is inspected; encrypted packets don't yield a sender here
// and fall through to the drop path.
type protoDecoder struct{}

func (protoDecoder) Name() string { return "protobuf" }

func (protoDecoder) Decode(payload []byte) (*Packet, bool) {
	var env pb.ServiceEnvelope
	if err := proto.Unmarshal(payload, &env); err != nil {
		return nil, false
	}
	mp := env.GetPacket()
	if mp == nil || mp.From == 0 {
		return nil, false
	}

	pkt := &Packet{
		SenderID: strconv.FormatUint(uint64(mp.From), 10),
	}
	hop := mp.HopLimit
	pkt.HopLimit = &hop

	if data := mp.GetDecoded(); data != nil {
		num := int32(data.Portnum)
		pkt.Port = PortRef{Name: data.Portnum.String(), Num: &num}
		if data.Portnum == pb.PortNum_TEXT_MESSAGE_APP && len(data.Payload) > 0 {
			pkt.Text = string(data.Payload)
		}
	}

	return pkt, true
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	default:
		return ""
	}
}

func anyToUint32(v any) *uint32 {
	var n uint64
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		i, err := strconv.ParseUint(t.String(), 10, 32)
		if err != nil {
			return nil
		}
		n = i
	case float64:
		if t < 0 {
			return nil
		}
		n = uint64(t)
	case int:
		if t < 0 {
			return nil
		}
		n = uint64(t)
	case string:
		i, err := strconv.ParseUint(t, 10, 32)
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	u := uint32(n)
	return &u
}

func anyToPortRef(v any) PortRef {
	switch t := v.(type) {
	case nil:
		return PortRef{}
	case string:
		if i, err := strconv.ParseInt(t, 10, 32); err == nil {
			n := int32(i)
			return PortRef{Num: &n}
		}
		return PortRef{Name: t}
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 32); err == nil {
			n := int32(i)
			return PortRef{Num: &n}
		}
		return PortRef{}
	case float64:
		n := int32(t)
		return PortRef{Num: &n}
	default:
		return PortRef{}
	}
}
