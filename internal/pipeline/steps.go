package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/net/proxy"

	"github.com/hostaudit/hostaudit/internal/check"
	"github.com/hostaudit/hostaudit/internal/config"
	"github.com/hostaudit/hostaudit/internal/model"
	"github.com/hostaudit/hostaudit/internal/policy"
)

// CheckStep evaluates all policy controls of one check type.
//
// Design decision: One generic step wraps every checker rather than one
// step type per check, because the evaluation loop is identical for all of
// them: select the controls, run the checker, fold results and findings
// into the report. The variation lives in the Checker implementations.
type CheckStep struct {
	// checker evaluates individual controls.
	checker check.Checker

	// policy supplies the controls to evaluate.
	policy *policy.Policy

	// logger for structured logging.
	logger *slog.Logger
}

// CheckStepOption configures a CheckStep.
type CheckStepOption func(*CheckStep)

// WithCheckLogger sets a custom logger for the step.
func WithCheckLogger(logger *slog.Logger) CheckStepOption {
	return func(s *CheckStep) {
		s.logger = logger
	}
}

// NewCheckStep creates a step that evaluates the policy's controls of the
// checker's type.
func NewCheckStep(checker check.Checker, pol *policy.Policy, opts ...CheckStepOption) *CheckStep {
	s := &CheckStep{
		checker: checker,
		policy:  pol,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name, which is the check type it evaluates.
func (s *CheckStep) Name() string {
	return s.checker.Type()
}

// Do evaluates every control of this step's check type.
// Checker errors other than context cancellation are recorded as errored
// control results so one broken control cannot hide the rest.
func (s *CheckStep) Do(ctx context.Context, report *model.AuditReport) error {
	for _, control := range s.policy.ControlsByType(s.checker.Type()) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.logger.Debug("evaluating control",
			"control", control.ID,
			"check", s.checker.Type(),
		)

		result, err := s.checker.Check(ctx, &control)
		if err != nil {
			// Checkers return errors only for cancellation; everything
			// else is reported through the result status.
			return err
		}

		foldResult(report, &control, s.checker.Type(), result)
	}
	return nil
}

// foldResult merges one check outcome into the audit report.
func foldResult(report *model.AuditReport, control *policy.Control, checkType string, result *check.CheckResult) {
	cr := model.ControlResult{
		ControlID: control.ID,
		Title:     control.Title,
		CheckType: checkType,
		Status:    result.Status,
		Message:   result.Message,
		Expected:  result.Expected,
		Actual:    result.Actual,
		Target:    control.Target,
	}

	if result.Status == model.StatusFail || result.Status == model.StatusWarn {
		cr.Remediation = remediationFor(control, result)
	}

	report.AddResult(cr)
	for _, f := range result.Findings {
		report.AddFinding(f)
	}
}

// remediationFor picks the remediation text for a failed control:
// the policy author's text wins, then the catalog guidance attached to the
// first finding.
func remediationFor(control *policy.Control, result *check.CheckResult) string {
	if control.Remediation != "" {
		return control.Remediation
	}
	for _, f := range result.Findings {
		if f.Recommendation != "" {
			return f.Recommendation
		}
	}
	return ""
}

// UnknownStep records an errored result for every control whose check type
// this build cannot evaluate. Silently dropping them would make the report
// lie about coverage.
type UnknownStep struct {
	policy *policy.Policy
	logger *slog.Logger
}

// NewUnknownStep creates a step covering the policy's unknown check types.
func NewUnknownStep(pol *policy.Policy, logger *slog.Logger) *UnknownStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnknownStep{policy: pol, logger: logger}
}

// Name returns the step name.
func (s *UnknownStep) Name() string {
	return "unknown_checks"
}

// Do records errored results for unknown check types.
func (s *UnknownStep) Do(_ context.Context, report *model.AuditReport) error {
	for _, control := range s.policy.UnknownControls() {
		s.logger.Warn("unknown check type",
			"control", control.ID,
			"check", control.CheckType,
		)
		report.AddResult(model.ControlResult{
			ControlID: control.ID,
			Title:     control.Title,
			CheckType: control.CheckType,
			Status:    model.StatusError,
			Message:   "check type not implemented: " + control.CheckType,
			Target:    control.Target,
		})
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Timeout is the per-connection timeout for network checks.
	Timeout time.Duration

	// Concurrency bounds parallel port probes.
	Concurrency int

	// HashAlgorithm is the digest used when a control omits one.
	HashAlgorithm string
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineTimeout sets the per-connection timeout for network checks.
func WithPipelineTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Timeout = timeout
	}
}

// WithPipelineConcurrency bounds parallel port probes.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineHashAlgorithm sets the default file-hash algorithm.
func WithPipelineHashAlgorithm(algorithm string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.HashAlgorithm = algorithm
	}
}

// DefaultPipeline creates a pipeline evaluating every check type the policy
// uses, in a fixed order: local file checks first, then process and cron
// state, then network probes. Paths come from the overrides file so audits
// can target container roots and fixtures.
//
// Design decision: We only add steps for check types the policy actually
// contains because:
// 1. Step logs then reflect real work instead of no-op noise
// 2. PerformedChecks in the report lists what actually ran
// 3. Network probes are not even constructed for offline policies
func DefaultPipeline(pol *policy.Policy, paths config.Paths, dialer proxy.Dialer, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Timeout:       config.DefaultTimeout,
		Concurrency:   config.DefaultConcurrency,
		HashAlgorithm: config.DefaultHashAlgorithm,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if paths.Concurrency > 0 {
		cfg.Concurrency = paths.Concurrency
	}
	if paths.Algorithm != "" {
		cfg.HashAlgorithm = paths.Algorithm
	}

	checkers := []check.Checker{
		check.NewConfigValueChecker(),
		check.NewFileHashChecker(check.WithDefaultAlgorithm(cfg.HashAlgorithm)),
		check.NewLogPatternChecker(),
		check.NewAccountChecker(paths.PasswdOrDefault(), paths.GroupOrDefault()),
		check.NewServiceStateChecker(paths.ProcOrDefault()),
		check.NewCronEntryChecker(paths.SystemCrontabOrDefault(), paths.CronDirOrDefault(), paths.UserCronDirOrDefault()),
		check.NewPortStateChecker(dialer,
			check.WithPortTimeout(cfg.Timeout),
			check.WithPortConcurrency(cfg.Concurrency),
		),
	}

	stepOpts := []CheckStepOption{}
	if p.logger != nil {
		stepOpts = append(stepOpts, WithCheckLogger(p.logger))
	}

	for _, checker := range checkers {
		if len(pol.ControlsByType(checker.Type())) == 0 {
			continue
		}
		p.AddStep(NewCheckStep(checker, pol, stepOpts...))
	}

	if len(pol.UnknownControls()) > 0 {
		p.AddStep(NewUnknownStep(pol, p.logger))
	}

	return p
}
