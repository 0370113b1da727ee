package engine

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync/atomic"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"go-pattern/debug"
)

// OSC addresses understood by the synthesis server
const (
	AddrAutomation      = "/automation"
	AddrAutomationClear = "/automation/clear"
	AddrResume          = "/resume"
	AddrClock           = "/clock"
	AddrVoiceGate       = "/voice/gate"
	AddrVoiceHold       = "/voice/hold"
	AddrQuadHold        = "/quad/hold"
	AddrVoiceTune       = "/voice/tune"
	AddrVoiceEnv        = "/voice/env"
	AddrVoicePan        = "/voice/pan"
	AddrVoiceFM         = "/voice/fm"
	AddrVoiceSharpness  = "/voice/sharpness"
	AddrDelayTime       = "/delay/time"
	AddrDelayFeedback   = "/delay/feedback"
	AddrDelayMix        = "/delay/mix"
	AddrLFOFreq         = "/lfo/freq"
	AddrDrive           = "/fx/drive"
	AddrDistortionMix   = "/fx/distmix"
	AddrVibrato         = "/fx/vibrato"
	AddrControl         = "/control"
)

// packetSender is the part of osc.Client the engine needs
type packetSender interface {
	Send(packet osc.Packet) error
}

// OSC drives a synthesis server over OSC. Its audio clock runs locally and is
// corrected by /clock messages the server sends to the listen port.
type OSC struct {
	client packetSender
	epoch  time.Time
	offset atomic.Uint64 // float64 bits: server time minus local time
}

// NewOSC creates an engine sending to host:port
func NewOSC(host string, port int) *OSC {
	return newOSC(osc.NewClient(host, port))
}

func newOSC(client packetSender) *OSC {
	return &OSC{client: client, epoch: time.Now()}
}

func (o *OSC) localTime() float64 {
	return time.Since(o.epoch).Seconds()
}

func (o *OSC) CurrentTime() float64 {
	return o.localTime() + math.Float64frombits(o.offset.Load())
}

// syncClock aligns the local clock with a server timestamp
func (o *OSC) syncClock(serverTime float64) {
	o.offset.Store(math.Float64bits(serverTime - o.localTime()))
}

func (o *OSC) send(addr string, args ...any) {
	if err := o.client.Send(osc.NewMessage(addr, args...)); err != nil {
		debug.LogEvery(100, "osc", "send %s failed: %v", addr, err)
	}
}

// automationMessage lays a path out as: name, count, tail, mode, t0..tn, v0..vn
func automationMessage(name string, times, values []float64, count int, tailTime float64, mode int) *osc.Message {
	args := make([]any, 0, 4+2*count)
	args = append(args, name, int32(count), float32(tailTime), int32(mode))
	for _, t := range times[:count] {
		args = append(args, float32(t))
	}
	for _, v := range values[:count] {
		args = append(args, float32(v))
	}
	return osc.NewMessage(AddrAutomation, args...)
}

func (o *OSC) SetParameterAutomation(name string, times, values []float64, count int, tailTime float64, mode int) {
	if err := o.client.Send(automationMessage(name, times, values, count, tailTime, mode)); err != nil {
		debug.LogEvery(100, "osc", "automation %s failed: %v", name, err)
	}
}

func (o *OSC) ClearParameterAutomation(name string) {
	o.send(AddrAutomationClear, name)
}

func (o *OSC) Resume() {
	o.send(AddrResume)
}

func (o *OSC) SetVoiceGate(voice int, value float64) {
	o.send(AddrVoiceGate, int32(voice), float32(value))
}

func (o *OSC) SetVoiceHold(voice int, level float64) {
	o.send(AddrVoiceHold, int32(voice), float32(level))
}

func (o *OSC) SetQuadHold(quad int, level float64) {
	o.send(AddrQuadHold, int32(quad), float32(level))
}

func (o *OSC) SetVoiceTune(voice int, semitones float64) {
	o.send(AddrVoiceTune, int32(voice), float32(semitones))
}

func (o *OSC) SetVoiceEnvSpeed(voice int, speed float64) {
	o.send(AddrVoiceEnv, int32(voice), float32(speed))
}

func (o *OSC) SetVoicePan(voice int, pan float64) {
	o.send(AddrVoicePan, int32(voice), float32(pan))
}

func (o *OSC) SetVoiceFMSource(voice int, from int) {
	o.send(AddrVoiceFM, int32(voice), int32(from))
}

func (o *OSC) SetVoiceSharpness(voice int, amount float64) {
	o.send(AddrVoiceSharpness, int32(voice), float32(amount))
}

func (o *OSC) SetDelayTime(line int, t float64) {
	o.send(AddrDelayTime, int32(line), float32(t))
}

func (o *OSC) SetDelayFeedback(line int, amount float64) {
	o.send(AddrDelayFeedback, int32(line), float32(amount))
}

func (o *OSC) SetDelayMix(line int, amount float64) {
	o.send(AddrDelayMix, int32(line), float32(amount))
}

func (o *OSC) SetLFOFrequency(lfo int, hz float64) {
	o.send(AddrLFOFreq, int32(lfo), float32(hz))
}

func (o *OSC) SetDrive(amount float64) {
	o.send(AddrDrive, float32(amount))
}

func (o *OSC) SetDistortionMix(amount float64) {
	o.send(AddrDistortionMix, float32(amount))
}

func (o *OSC) SetVibrato(amount float64) {
	o.send(AddrVibrato, float32(amount))
}

func (o *OSC) SetControl(name string, value float64) {
	o.send(AddrControl, name, float32(value))
}

// Dispatcher returns an OSC dispatcher handling the server's /clock reports
func (o *OSC) Dispatcher() *osc.StandardDispatcher {
	d := osc.NewStandardDispatcher()
	d.AddMsgHandler(AddrClock, func(msg *osc.Message) {
		if len(msg.Arguments) == 0 {
			return
		}
		t, ok := numberArg(msg.Arguments[0])
		if !ok {
			debug.Log("osc", "bad /clock argument %T", msg.Arguments[0])
			return
		}
		o.syncClock(t)
	})
	return d
}

// Listen receives server messages on port until ctx is done
func (o *OSC) Listen(ctx context.Context, port int) error {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	server := &osc.Server{Dispatcher: o.Dispatcher()}
	err = server.Serve(conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func numberArg(arg any) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
