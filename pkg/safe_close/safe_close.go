package safe_close

import "sync"

// SafeClose coordinates shutdown of a service and its goroutines.
// CloseWait does not return until every attached goroutine has exited.
//
//  1. The main goroutine waits on ReceiveCloseSignal and calls Done before returning.
//  2. Service goroutines are started through Attach and also wait on ReceiveCloseSignal.
//  3. On a fatal error any goroutine may call SendCloseSignal to bring the service down.
//     Calling CloseWait from inside a service goroutine deadlocks.
//  4. Outside callers shut the service down with CloseWait.
type SafeClose struct {
	m           sync.Mutex
	wg          sync.WaitGroup
	closeSignal chan struct{}
	done        chan struct{}
	doneOnce    sync.Once
	closeErr    error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// CloseWait sends the close signal and blocks until s.Done() has been
// called and all attached goroutines have finished. It is concurrent
// safe and may be called multiple times.
func (s *SafeClose) CloseWait() {
	s.SendCloseSignal(nil)
	s.wg.Wait()
	<-s.done
}

// SendCloseSignal sends a close signal.
func (s *SafeClose) SendCloseSignal(err error) {
	s.m.Lock()
	defer s.m.Unlock()

	select {
	case <-s.closeSignal:
		return
	default:
		if err != nil {
			s.closeErr = err
		}
		close(s.closeSignal)
	}
}

// Err returns the first SendCloseSignal error.
func (s *SafeClose) Err() error {
	s.m.Lock()
	defer s.m.Unlock()
	return s.closeErr
}

func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeSignal
}

// Attach starts f in a new goroutine tracked by CloseWait.
// f must watch closeSignal and call done when it returns.
// If s is already closed, f does not run.
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.m.Lock()
	select {
	case <-s.closeSignal:
		s.m.Unlock()
		return
	default:
		s.wg.Add(1)
	}
	s.m.Unlock()

	go func() {
		f(s.wg.Done, s.closeSignal)
	}()
}

// Done tells CloseWait that the main goroutine has finished.
// It is concurrent safe and may be called multiple times.
func (s *SafeClose) Done() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
