package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/GriffinCanCode/speaksee/client/internal/errors"
	"github.com/gordonklaus/portaudio"
)

// PortAudioSource opens one input-only PortAudio stream at the device's native
// rate. The stream has no output channels, so captured audio never reaches a
// speaker.
type PortAudioSource struct {
	framesPerBuf int
	excluded     []string

	mu     sync.Mutex
	stream *portaudio.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPortAudioSource creates a source reading blocks of framesPerBuf frames.
func NewPortAudioSource(framesPerBuf int, excludedDevices []string) *PortAudioSource {
	if framesPerBuf <= 0 {
		framesPerBuf = DefaultFramesPerBuffer
	}
	return &PortAudioSource{framesPerBuf: framesPerBuf, excluded: excludedDevices}
}

// ListDevices returns every PortAudio device with input channels.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()

	_, infos, err := inputDevices()
	return infos, err
}

func inputDevices() ([]*portaudio.DeviceInfo, []DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, nil, err
	}
	var defName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defName = def.Name
	}

	var raw []*portaudio.DeviceInfo
	var infos []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels < 1 {
			continue
		}
		raw = append(raw, dev)
		infos = append(infos, DeviceInfo{
			Name:        dev.Name,
			Channels:    dev.MaxInputChannels,
			DefaultRate: dev.DefaultSampleRate,
			Default:     dev.Name == defName,
		})
	}
	return raw, infos, nil
}

// Open initializes PortAudio, opens the selected device and starts the read
// loop. Failures are DEVICE errors.
func (s *PortAudioSource) Open(ctx context.Context, onBlock func([]float32)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return 0, fmt.Errorf("source already open")
	}
	if err := ctx.Err(); err != nil {
		return 0, apperrors.Device(err)
	}

	if err := portaudio.Initialize(); err != nil {
		return 0, apperrors.Device(err)
	}

	raw, infos, err := inputDevices()
	if err != nil {
		_ = portaudio.Terminate()
		return 0, apperrors.Device(err)
	}
	idx := SelectInput(infos, s.excluded)
	if idx < 0 {
		_ = portaudio.Terminate()
		return 0, apperrors.Device(apperrors.ErrNoDevice)
	}
	dev := raw[idx]

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: s.framesPerBuf,
	}

	buf := make([]float32, s.framesPerBuf)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return 0, apperrors.Device(classifyOpenError(err))
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return 0, apperrors.Device(classifyOpenError(err))
	}

	readCtx, cancel := context.WithCancel(context.Background())
	s.stream = stream
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.readLoop(readCtx, stream, buf, onBlock, s.done)

	slog.Info("started audio capture", "device", dev.Name, "rate", dev.DefaultSampleRate)
	return int(dev.DefaultSampleRate), nil
}

func (s *PortAudioSource) readLoop(ctx context.Context, stream *portaudio.Stream, buf []float32, onBlock func([]float32), done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if ctx.Err() == nil {
				slog.Debug("audio read error", "error", err)
			}
			return
		}
		onBlock(buf)
	}
}

// Close stops the read loop and releases the device.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	stream, cancel, done := s.stream, s.cancel, s.done
	s.stream, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	if stream == nil {
		return nil
	}

	cancel()
	_ = stream.Stop()
	<-done
	err := stream.Close()
	_ = portaudio.Terminate()
	return err
}

func classifyOpenError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "not permitted") {
		return fmt.Errorf("%w: %v", apperrors.ErrPermissionDenied, err)
	}
	return err
}
