package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	"github.com/fenilsonani/junk-sweeper/internal/filter"
	"github.com/fenilsonani/junk-sweeper/internal/mediaindex"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/session"
)

type collector struct {
	mu     sync.Mutex
	events []progress.Event
	onTerm func(progress.Event)
}

func (c *collector) Publish(e progress.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	hook := c.onTerm
	c.mu.Unlock()

	if e.Terminal() && hook != nil {
		hook(e)
	}
}

func (c *collector) all() []progress.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]progress.Event(nil), c.events...)
}

func (c *collector) terminals() []progress.Event {
	var out []progress.Event
	for _, e := range c.all() {
		if e.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

// blockingSource reports one progress step and then waits for release or
// cancellation
type blockingSource struct {
	release chan struct{}
}

func (b *blockingSource) Enumerate(ctx context.Context, em scanner.Emitter) error {
	em.Progress(10, "/sdcard")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.release:
		return nil
	}
}

type failingLister struct{}

func (failingLister) Images(context.Context) ([]mediaindex.Record, error) {
	return nil, errors.New("database is locked")
}

func writeFile(fs afero.Fs, path string, size int) {
	ExpectWithOffset(1, fs.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	ExpectWithOffset(1, afero.WriteFile(fs, path, make([]byte, size), 0644)).To(Succeed())
}

var _ = Describe("Session", func() {
	var (
		fs     afero.Fs
		events *collector
		engine *scanner.Engine
		clean  *cleaner.Cleaner
		s      *session.Session
	)

	newSession := func(src scanner.Source, selectAll bool) *session.Session {
		sess := session.New(session.Options{
			Engine:             engine,
			Source:             src,
			Cleaner:            clean,
			SelectAllAfterScan: selectAll,
		})
		Expect(sess.Attach(events)).To(Succeed())
		return sess
	}

	scanAndWait := func() {
		_, err := s.StartScan()
		Expect(err).NotTo(HaveOccurred())
		s.Wait()
	}

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		writeFile(fs, "/sdcard/tmp/a.tmp", 1024)
		writeFile(fs, "/sdcard/logs/b.log", 2048)
		writeFile(fs, "/sdcard/Android/data/com.example/cache/c.bin", 4096)

		events = &collector{}
		engine = scanner.New(classifier.New(classifier.Rules{}), nil)
		clean = cleaner.New(fs, nil, nil)
		clean.SetRetryDelays([]time.Duration{time.Millisecond})
	})

	AfterEach(func() {
		if s != nil {
			s.Detach()
		}
	})

	Describe("StartScan", func() {
		Context("when the scan completes", func() {
			BeforeEach(func() {
				s = newSession(&scanner.DirSource{Fs: fs, Roots: []string{"/sdcard"}}, false)
			})

			It("should commit the result before the completed event is delivered", func() {
				var seen *scanner.ScanResult
				events.onTerm = func(progress.Event) { seen = s.View() }

				scanAndWait()

				Eventually(events.terminals).Should(HaveLen(1))
				Expect(events.terminals()[0].Kind).To(Equal(progress.KindCompleted))
				Expect(seen).NotTo(BeNil())
				Expect(seen.TotalCount).To(Equal(3))
				Expect(seen.TotalSize).To(Equal(int64(7168)))
				Expect(s.Busy()).To(BeFalse())
			})

			It("should start with the first event and end with one terminal event", func() {
				scanAndWait()

				Eventually(events.terminals).Should(HaveLen(1))
				all := events.all()
				Expect(all[0].Kind).To(Equal(progress.KindStarted))
				Expect(all[len(all)-1].Terminal()).To(BeTrue())
			})

			It("should keep the selection when rescanning", func() {
				scanAndWait()
				Expect(s.Selection().SetEntry("/sdcard/logs/b.log", true)).To(BeTrue())

				writeFile(fs, "/sdcard/tmp/d.tmp", 10)
				scanAndWait()

				Expect(s.Selection().IsSelected("/sdcard/logs/b.log")).To(BeTrue())
				Expect(s.Selection().IsSelected("/sdcard/tmp/d.tmp")).To(BeFalse())
				Expect(s.View().TotalCount).To(Equal(4))
			})
		})

		Context("when select-all after scan is enabled", func() {
			It("should select and expand every category", func() {
				s = newSession(&scanner.DirSource{Fs: fs, Roots: []string{"/sdcard"}}, true)
				scanAndWait()

				Expect(s.Selection().IsAllSelected()).To(BeTrue())
				Expect(s.Selection().SelectedSize()).To(Equal(int64(7168)))
				for _, cat := range s.View().Categories {
					Expect(cat.Expanded).To(BeTrue())
				}
			})
		})

		Context("when the scan fails", func() {
			It("should report one error event and keep the previous result", func() {
				faulty := &scanner.IndexSource{Index: failingLister{}, Fs: fs}
				s = newSession(faulty, false)
				scanAndWait()

				Eventually(events.terminals).Should(HaveLen(1))
				Expect(events.terminals()[0].Kind).To(Equal(progress.KindError))
				Expect(s.LastScanError()).To(HaveOccurred())
				Expect(s.View().TotalCount).To(BeZero())
			})
		})

		Context("when a task is already running", func() {
			var src *blockingSource

			BeforeEach(func() {
				src = &blockingSource{release: make(chan struct{})}
				s = newSession(src, false)
				_, err := s.StartScan()
				Expect(err).NotTo(HaveOccurred())
			})

			It("should reject another scan or delete", func() {
				_, err := s.StartScan()
				Expect(err).To(MatchError(session.ErrBusy))

				_, err = s.StartDelete()
				Expect(err).To(MatchError(session.ErrBusy))

				close(src.release)
				s.Wait()
				Expect(s.Busy()).To(BeFalse())
			})

			It("should publish nothing further once canceled", func() {
				s.Cancel()
				s.Wait()

				Consistently(events.terminals, 50*time.Millisecond).Should(BeEmpty())
				Expect(s.Busy()).To(BeFalse())

				_, err := s.StartScan()
				Expect(err).NotTo(HaveOccurred())
				close(src.release)
			})
		})
	})

	Describe("Detach", func() {
		It("should cancel the running scan and refuse new work", func() {
			s = newSession(&blockingSource{release: make(chan struct{})}, false)
			_, err := s.StartScan()
			Expect(err).NotTo(HaveOccurred())

			s.Detach()

			Expect(s.Busy()).To(BeFalse())
			Expect(events.terminals()).To(BeEmpty())

			_, err = s.StartScan()
			Expect(err).To(MatchError(session.ErrDetached))
			_, err = s.StartDelete()
			Expect(err).To(MatchError(session.ErrDetached))
			Expect(s.Attach(events)).To(MatchError(session.ErrDetached))
		})

		It("should be safe to call twice", func() {
			s = newSession(&blockingSource{release: make(chan struct{})}, false)
			s.Detach()
			s.Detach()
		})
	})

	Describe("StartDelete", func() {
		BeforeEach(func() {
			s = newSession(&scanner.DirSource{Fs: fs, Roots: []string{"/sdcard"}}, true)
			scanAndWait()
			events.mu.Lock()
			events.events = nil
			events.mu.Unlock()
		})

		It("should delete only the visible selected entries", func() {
			s.SetFilter(filter.Filter{MinSize: 1500})
			Expect(s.VisibleSelected()).To(HaveLen(2))

			_, err := s.StartDelete()
			Expect(err).NotTo(HaveOccurred())
			s.Wait()

			result := s.LastDelete()
			Expect(result).NotTo(BeNil())
			Expect(result.SuccessCount).To(Equal(2))
			Expect(result.ReclaimedBytes).To(Equal(int64(6144)))

			exists, _ := afero.Exists(fs, "/sdcard/tmp/a.tmp")
			Expect(exists).To(BeTrue())

			s.SetFilter(filter.Filter{})
			Expect(s.View().TotalCount).To(Equal(1))
			Expect(s.Selection().IsSelected("/sdcard/tmp/a.tmp")).To(BeTrue())

			Eventually(events.terminals).Should(HaveLen(1))
			done := events.terminals()[0]
			Expect(done.Kind).To(Equal(progress.KindCompleted))
			Expect(done.Bytes).To(Equal(int64(6144)))
		})

		It("should evict files that vanished since the scan", func() {
			Expect(fs.Remove("/sdcard/logs/b.log")).To(Succeed())

			_, err := s.StartDelete()
			Expect(err).NotTo(HaveOccurred())
			s.Wait()

			result := s.LastDelete()
			Expect(result.SuccessCount).To(Equal(2))
			Expect(result.FailedCount).To(Equal(1))
			Expect(result.Summary()).To(Equal("Failed to delete 1 items"))
			Expect(s.View().TotalCount).To(BeZero())
		})

		It("should report an empty selection as an error event", func() {
			s.Selection().ClearAll()

			_, err := s.StartDelete()
			Expect(err).NotTo(HaveOccurred())
			s.Wait()

			Eventually(events.terminals).Should(HaveLen(1))
			term := events.terminals()[0]
			Expect(term.Kind).To(Equal(progress.KindError))
			var fault *cleaner.BatchFault
			Expect(term.Err).To(BeAssignableToTypeOf(fault))
			Expect(s.LastDelete()).To(BeNil())
		})
	})
})
