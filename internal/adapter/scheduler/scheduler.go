package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc представляет функцию задачи планировщика.
type JobFunc func(ctx context.Context) error

// JobID представляет идентификатор задачи.
type JobID = cron.EntryID

// OverlapPolicy определяет политику обработки перекрывающихся выполнений задач.
type OverlapPolicy int

const (
	// SkipIfRunning пропускает запуск, если предыдущий ещё выполняется (по умолчанию).
	SkipIfRunning OverlapPolicy = iota
	// DelayIfRunning ждет завершения предыдущего выполнения.
	DelayIfRunning
	// AllowOverlap разрешает параллельное выполнение.
	AllowOverlap
)

func (p OverlapPolicy) String() string {
	switch p {
	case SkipIfRunning:
		return "skip"
	case DelayIfRunning:
		return "delay"
	case AllowOverlap:
		return "allow"
	default:
		return fmt.Sprintf("OverlapPolicy(%d)", int(p))
	}
}

// ParseOverlapPolicy разбирает политику из строки: skip, delay или allow.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "skip":
		return SkipIfRunning, nil
	case "delay":
		return DelayIfRunning, nil
	case "allow":
		return AllowOverlap, nil
	default:
		return 0, fmt.Errorf("unknown overlap policy %q", s)
	}
}

// JobOptions содержит опции для настройки задач.
type JobOptions struct {
	// Name - имя задачи для логирования.
	Name string
	// Timeout - максимальное время одного выполнения (0 - без ограничения).
	Timeout time.Duration
	// OverlapPolicy - политика обработки перекрывающихся выполнений.
	OverlapPolicy OverlapPolicy
	// RunOnStart - выполнить задачу сразу при Start, не дожидаясь расписания.
	RunOnStart bool
}

// JobHooks содержит необязательные хуки для наблюдаемости.
type JobHooks struct {
	// OnJobFinish вызывается после каждого выполнения, включая неудачные.
	OnJobFinish func(jobName string, id JobID, duration time.Duration, err error)
}

// Config содержит конфигурацию планировщика.
type Config struct {
	Logger   *slog.Logger
	JobHooks JobHooks
	// Location - часовой пояс расписаний (по умолчанию time.Local).
	Location *time.Location
}

// parser принимает расписания из 5 и 6 полей (секунды необязательны) и дескрипторы вида @every.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type job struct {
	id   JobID
	fn   JobFunc
	opts JobOptions
}

// Scheduler запускает задачи по cron-расписанию.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	hooks  JobHooks
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	onStart []*job

	stopOnce  sync.Once
	startOnce sync.Once
}

// NewWithContext создает планировщик, который останавливается вместе с parentCtx.
func NewWithContext(parentCtx context.Context, cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(parentCtx)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
		),
		logger: logger,
		hooks:  cfg.JobHooks,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob добавляет задачу по расписанию. Примеры расписаний:
//   - "*/5 * * * *" - каждые 5 минут
//   - "0 30 * * * *" - в 30 секунд каждой минуты
//   - "@every 1m" - каждую минуту
func (s *Scheduler) AddJob(schedule string, fn JobFunc, opts JobOptions) (JobID, error) {
	if opts.Name == "" {
		opts.Name = "unnamed"
	}
	j := &job{fn: fn, opts: opts}

	cl := cronLogger{logger: s.logger.With("job", opts.Name)}
	var chain cron.Chain
	switch opts.OverlapPolicy {
	case DelayIfRunning:
		chain = cron.NewChain(cron.DelayIfStillRunning(cl))
	case AllowOverlap:
		chain = cron.NewChain()
	default:
		chain = cron.NewChain(cron.SkipIfStillRunning(cl))
	}

	// Запуск при старте проходит через ту же цепочку, что и запуски по расписанию
	wrapped := chain.Then(cron.FuncJob(func() { s.run(j) }))

	id, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		s.logger.Error("failed to add job", "schedule", schedule, "name", opts.Name, "error", err)
		return 0, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	j.id = id

	if opts.RunOnStart {
		s.mu.Lock()
		s.onStart = append(s.onStart, &job{fn: func(context.Context) error { wrapped.Run(); return nil }, opts: opts})
		s.mu.Unlock()
	}

	s.logger.Info("job added", "schedule", schedule, "name", opts.Name, "overlap_policy", opts.OverlapPolicy, "id", id)
	return id, nil
}

// Next возвращает время следующего запуска задачи или нулевое время, если задачи нет
// или планировщик ещё не запущен.
func (s *Scheduler) Next(id JobID) time.Time {
	return s.cron.Entry(id).Next
}

// Start запускает планировщик. Повторные вызовы ничего не делают.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting scheduler")
		s.cron.Start()

		s.mu.Lock()
		pending := s.onStart
		s.onStart = nil
		s.mu.Unlock()

		for _, j := range pending {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				_ = j.fn(s.ctx)
			}()
		}

		// Останавливаемся вместе с родительским контекстом
		go func() {
			<-s.ctx.Done()
			s.stopOnce.Do(s.stop)
		}()
	})
}

// Run запускает планировщик и блокируется до отмены ctx,
// после чего останавливает его, давая задачам не более grace на завершение.
func (s *Scheduler) Run(ctx context.Context, grace time.Duration) error {
	s.Start()

	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.StopContext(stopCtx)
}

// Stop останавливает планировщик и ждет завершения всех задач.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cancel()
	s.stopOnce.Do(s.stop)
}

// StopContext останавливает планировщик с учетом дедлайна ctx.
// Если дедлайн истекает раньше, остановка всё равно завершается,
// но возвращается ошибка контекста.
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.stopOnce.Do(s.stop)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded, waiting for running jobs")
		<-done
		return ctx.Err()
	}
}

func (s *Scheduler) stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// run выполняет задачу: хуки, таймаут, восстановление после паники.
func (s *Scheduler) run(j *job) {
	name := j.opts.Name

	ctx := s.ctx
	if j.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, j.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := s.call(ctx, j)
	duration := time.Since(start)

	if s.hooks.OnJobFinish != nil {
		s.hooks.OnJobFinish(name, j.id, duration, err)
	}

	if err != nil {
		s.logger.Error("job failed", "name", name, "error", err, "duration", duration)
		return
	}
	s.logger.Debug("job completed", "name", name, "duration", duration)
}

func (s *Scheduler) call(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "name", j.opts.Name, "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.fn(ctx)
}

// cronLogger адаптер для интеграции cron logger с slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
