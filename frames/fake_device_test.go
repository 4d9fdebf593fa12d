package frames_test

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
)

type eventLog struct {
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) index(event string) int {
	for i, e := range l.events {
		if e == event {
			return i
		}
	}

	return -1
}

func (l *eventLog) count(event string) int {
	var count int
	for _, e := range l.events {
		if e == event {
			count++
		}
	}

	return count
}

// fakeDevice signals a submission's fence as soon as it is submitted, unless hung
type fakeDevice struct {
	log *eventLog

	fences      []*fakeFence
	semaphores  []*fakeSemaphore
	contexts    []*fakeCommands
	submissions []frames.Submission

	hung             bool
	submitErr        error
	waitIdleErr      error
	waitIdleCalls    int
	failSemaphoreAt  int
	semaphoreCreates int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		log:             &eventLog{},
		failSemaphoreAt: -1,
	}
}

func (d *fakeDevice) CreateFence(signaled bool) (frames.Fence, error) {
	fence := &fakeFence{
		device:     d,
		id:         len(d.fences),
		signaled:   signaled,
		lastSubmit: -1,
	}
	d.fences = append(d.fences, fence)
	return fence, nil
}

func (d *fakeDevice) CreateSemaphore() (frames.Semaphore, error) {
	if d.semaphoreCreates == d.failSemaphoreAt {
		return nil, errors.New("out of semaphores")
	}
	d.semaphoreCreates++

	semaphore := &fakeSemaphore{id: len(d.semaphores)}
	d.semaphores = append(d.semaphores, semaphore)
	return semaphore, nil
}

func (d *fakeDevice) CreateCommandContext() (frames.CommandContext, error) {
	commands := &fakeCommands{device: d, id: len(d.contexts)}
	d.contexts = append(d.contexts, commands)
	return commands, nil
}

func (d *fakeDevice) Submit(submission frames.Submission) error {
	if d.submitErr != nil {
		return d.submitErr
	}

	d.submissions = append(d.submissions, submission)
	index := len(d.submissions) - 1

	fence := submission.Fence.(*fakeFence)
	if submission.Commands == nil {
		d.log.add("submit %d discard fence %d", index, fence.id)
	} else {
		d.log.add("submit %d fence %d", index, fence.id)
	}

	if !d.hung {
		fence.signaled = true
		fence.lastSubmit = index
	}

	return nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdleCalls++
	d.log.add("wait idle")
	return d.waitIdleErr
}

type fakeFence struct {
	device     *fakeDevice
	id         int
	signaled   bool
	lastSubmit int
	waitErr    error
	resets     int
	destroyed  bool
}

func (f *fakeFence) Wait(timeout time.Duration) error {
	if f.waitErr != nil {
		return f.waitErr
	}

	if !f.signaled {
		return errors.Wrapf(frames.ErrFenceTimeout, "fence %d after %s", f.id, timeout)
	}

	f.device.log.add("wait fence %d after submit %d", f.id, f.lastSubmit)
	return nil
}

func (f *fakeFence) Reset() error {
	f.signaled = false
	f.resets++
	f.device.log.add("reset fence %d", f.id)
	return nil
}

func (f *fakeFence) Destroy() {
	f.destroyed = true
}

type fakeSemaphore struct {
	id        int
	destroyed bool
}

func (s *fakeSemaphore) Destroy() {
	s.destroyed = true
}

type fakeCommands struct {
	device    *fakeDevice
	id        int
	recording bool
	resets    int
	destroyed bool
}

func (c *fakeCommands) Reset() error {
	c.resets++
	c.recording = false
	c.device.log.add("reset commands %d", c.id)
	return nil
}

func (c *fakeCommands) Begin() error {
	if c.recording {
		return errors.New("command context begun twice")
	}

	c.recording = true
	return nil
}

func (c *fakeCommands) End() error {
	if !c.recording {
		return errors.New("command context ended without begin")
	}

	c.recording = false
	return nil
}

func (c *fakeCommands) Destroy() {
	c.destroyed = true
}

type fakeResource struct {
	log       *eventLog
	index     int
	resets    int
	destroyed bool
}

func (r *fakeResource) Reset() error {
	r.resets++
	r.log.add("reset resources %d", r.index)
	return nil
}

func (r *fakeResource) Destroy() {
	r.destroyed = true
}
