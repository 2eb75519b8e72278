//go:build alsa && linux && !headless

// audio_backend_alsa.go - ALSA beeper backend

package main

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, 1);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// AlsaBeeper plays the gated tone straight through libasound, for systems
// where the oto backend misbehaves. A feeder goroutine pulls from the
// tone source; snd_pcm_writei blocks until the device accepts the chunk,
// which paces the loop.
type AlsaBeeper struct {
	handle *C.snd_pcm_t
	source *toneSource
	buf    []float32

	mutex   sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewAlsaBeeper(sampleRate int) (*AlsaBeeper, error) {
	device := C.CString("default")
	defer C.free(unsafe.Pointer(device))

	var cerr C.int
	handle := C.openPCM(device, &cerr)
	if cerr < 0 {
		return nil, &AudioError{
			Operation: "context creation",
			Details:   "alsa open",
			Err:       alsaError(cerr),
		}
	}

	if cerr = C.setupPCM(handle, C.uint(sampleRate)); cerr < 0 {
		C.closePCM(handle)
		return nil, &AudioError{
			Operation: "context creation",
			Details:   "alsa setup",
			Err:       alsaError(cerr),
		}
	}

	return &AlsaBeeper{
		handle: handle,
		source: newToneSource(sampleRate),
		// 10ms chunks keep Beep latency below one gate interval.
		buf: make([]float32, sampleRate/100),
	}, nil
}

func alsaError(code C.int) error {
	return fmt.Errorf("%s", C.GoString(C.snd_strerror(code)))
}

func (b *AlsaBeeper) Start() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.started {
		return nil
	}
	b.stopCh = make(chan struct{})
	b.done = make(chan struct{})
	b.started = true
	go b.feed(b.stopCh, b.done)
	return nil
}

func (b *AlsaBeeper) Stop() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.started {
		return nil
	}
	close(b.stopCh)
	<-b.done
	b.started = false
	return nil
}

func (b *AlsaBeeper) Beep() {
	b.source.arm()
}

func (b *AlsaBeeper) Close() error {
	if err := b.Stop(); err != nil {
		return err
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.handle != nil {
		C.closePCM(b.handle)
		b.handle = nil
	}
	return nil
}

// feed owns the PCM handle between Start and Stop; Stop waits for done
// before Close tears the handle down.
func (b *AlsaBeeper) feed(stopCh, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		b.source.fill(b.buf)
		frames := C.writePCM(b.handle, (*C.float)(unsafe.Pointer(&b.buf[0])), C.int(len(b.buf)))
		if frames == -C.EPIPE {
			// Underrun; recover and carry on with the next chunk.
			C.snd_pcm_prepare(b.handle)
		}
	}
}
