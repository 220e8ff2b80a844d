package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voxpipe/internal/audioanalysis"
	"voxpipe/internal/config"
	"voxpipe/internal/enhance"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
	"voxpipe/internal/notifications"
	"voxpipe/internal/services"
	"voxpipe/internal/textclean"
	"voxpipe/internal/transcribe"
)

// Stage names used for logging and error tagging.
const (
	StageTranscode = "transcode"
	StageAnalyze   = "analyze"
	StageSuppress  = "suppress"
	StageDenoise   = "denoise"
	StageASR       = "asr"
	StageClean     = "clean"
)

// Progress checkpoints persisted after each transition.
const (
	ProgressQueued     = 5
	ProgressStarted    = 10
	ProgressTranscoded = 15
	ProgressAnalyzed   = 25
	ProgressSuppressed = 30
	ProgressDenoised   = 35
	ProgressASR        = 80
	ProgressCleaned    = 95
	ProgressDone       = 100

	progressAnalysisFailed = 20
)

const (
	// MinSpeechRatioAfterSuppression rejects music uploads that keep almost
	// no speech once the music is reduced.
	MinSpeechRatioAfterSuppression = 0.10
	// NoisySNRThreshold selects the noisy profile below this SNR in dB.
	NoisySNRThreshold = 6.0
)

// User-facing job error messages.
const (
	MessageMusicOnly = "فایل بیشتر شامل موسیقی است و گفتاری پیدا نشد. لطفاً فایل دیگری آپلود کنید."
	MessageQueueFull = "صف پردازش پر است"

	msgTranscodeFailed = "تبدیل فایل ناموفق بود: %v"
	msgTooLong         = "طول فایل بیشتر از %d ثانیه است"
	msgAnalysisFailed  = "تحلیل صوت ناموفق بود: %v"
	msgSuppressFailed  = "کاهش موسیقی ناموفق بود: %v"
	msgDenoiseFailed   = "حذف نویز ناموفق بود: %v"
	msgASRFailed       = "تشخیص گفتار ناموفق بود: %v"
	msgCleanFailed     = "پاکسازی متن ناموفق بود: %v"
)

// TooLongMessage is the job error stored when audio exceeds the duration cap.
func TooLongMessage(limitSeconds int) string {
	return fmt.Sprintf(msgTooLong, limitSeconds)
}

// Transcoder converts an upload into 16 kHz mono WAV.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Classifier analyses a WAV file.
type Classifier func(path string) (audioanalysis.Analysis, error)

// Enhancer writes an enhanced copy of in to out and names the provider used.
type Enhancer interface {
	Run(ctx context.Context, in, out string) (string, error)
}

// EnhancerFunc adapts a function to the Enhancer interface.
type EnhancerFunc func(ctx context.Context, in, out string) (string, error)

// Run calls f(ctx, in, out).
func (f EnhancerFunc) Run(ctx context.Context, in, out string) (string, error) {
	return f(ctx, in, out)
}

// Transcriber turns speech into raw text using a named profile.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, profile string) (transcribe.Result, error)
}

// TextCleaner normalizes a raw transcript.
type TextCleaner interface {
	Clean(ctx context.Context, raw string) (string, error)
}

// Orchestrator runs the per-job state machine.
type Orchestrator struct {
	cfg      *config.Config
	store    *jobs.Store
	logger   *slog.Logger
	notifier notifications.Service

	transcoder  Transcoder
	classify    Classifier
	suppressor  Enhancer
	denoiser    Enhancer
	transcriber Transcriber
	cleaner     TextCleaner
}

// OrchestratorOption overrides a stage implementation.
type OrchestratorOption func(*Orchestrator)

// WithNotifier sets the notification service.
func WithNotifier(n notifications.Service) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithTranscoder replaces the ffmpeg transcoder.
func WithTranscoder(t Transcoder) OrchestratorOption {
	return func(o *Orchestrator) { o.transcoder = t }
}

// WithClassifier replaces the audio classifier.
func WithClassifier(c Classifier) OrchestratorOption {
	return func(o *Orchestrator) { o.classify = c }
}

// WithSuppressor replaces the music suppression chain.
func WithSuppressor(e Enhancer) OrchestratorOption {
	return func(o *Orchestrator) { o.suppressor = e }
}

// WithDenoiser replaces the denoise chain.
func WithDenoiser(e Enhancer) OrchestratorOption {
	return func(o *Orchestrator) { o.denoiser = e }
}

// WithTranscriber replaces the ASR service.
func WithTranscriber(t Transcriber) OrchestratorOption {
	return func(o *Orchestrator) { o.transcriber = t }
}

// WithCleaner replaces the text cleaner.
func WithCleaner(c TextCleaner) OrchestratorOption {
	return func(o *Orchestrator) { o.cleaner = c }
}

// NewOrchestrator wires the default stage implementations from cfg.
func NewOrchestrator(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}
	if o.transcoder == nil {
		o.transcoder = enhance.NewTranscoder(cfg.FFmpegBinary())
	}
	if o.classify == nil {
		o.classify = audioanalysis.ClassifyFile
	}
	if o.denoiser == nil || o.suppressor == nil {
		denoiser := enhance.NewDenoiser(logger)
		if o.denoiser == nil {
			o.denoiser = EnhancerFunc(denoiser.Denoise)
		}
		if o.suppressor == nil {
			suppressor := enhance.NewSuppressor(enhance.SuppressorOptions{
				DemucsEnabled: cfg.Enhance.DemucsEnabled,
				DemucsBinary:  cfg.DemucsBinary(),
			}, denoiser, logger)
			o.suppressor = EnhancerFunc(suppressor.Suppress)
		}
	}
	if o.transcriber == nil {
		o.transcriber = transcribe.NewFromConfig(cfg, logger)
	}
	if o.cleaner == nil {
		o.cleaner = textclean.NewFromConfig(cfg, logger)
	}
	return o
}

// SelectProfile maps an analysis to the audio type and transcription profile.
func SelectProfile(a audioanalysis.Analysis) (audioType, profile string) {
	audioType = a.Type
	if audioType == "" {
		audioType = jobs.AudioSpeech
	}
	switch {
	case audioType == jobs.AudioMusic || audioType == jobs.AudioMixed:
		return audioType, jobs.ProfileMusicMixed
	case a.SNREstimate < NoisySNRThreshold:
		return audioType, jobs.ProfileNoisy
	default:
		return audioType, jobs.ProfileBalanced
	}
}

// Process drives one job to done or error. Stage failures are recorded on the
// job and are not returned; the returned error reports store failures.
func (o *Orchestrator) Process(ctx context.Context, id string) error {
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, o.logger)

	job, err := o.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}
	if job == nil {
		logging.WarnWithContext(logger, "job record missing; skipping", "job_missing",
			logging.String(logging.FieldImpact, "queued id is dropped"),
			logging.String(logging.FieldErrorHint, "job may have been removed by the retention sweep"),
		)
		return nil
	}

	run := &jobRun{o: o, job: job, logger: logger, progress: job.Progress}
	return run.execute(ctx)
}

// jobRun carries the mutable state of one processing attempt.
type jobRun struct {
	o        *Orchestrator
	job      *jobs.Job
	logger   *slog.Logger
	progress int
}

// update is the single write path for job state. Progress never moves
// backwards within an attempt.
func (r *jobRun) update(ctx context.Context, fields jobs.Fields) error {
	if value, ok := fields[jobs.ColProgress].(int); ok {
		if value < r.progress {
			value = r.progress
			fields[jobs.ColProgress] = value
		}
		r.progress = value
	}
	if err := r.o.store.Update(ctx, r.job.ID, fields); err != nil {
		return err
	}
	if _, ok := fields[jobs.ColProgress]; ok {
		r.logger.Debug("job progress", logging.Int(logging.FieldProgress, r.progress))
	}
	return nil
}

// fail moves the job to error. progress of zero keeps the current value.
func (r *jobRun) fail(ctx context.Context, stage string, progress int, message string, cause error) error {
	if progress <= 0 {
		progress = r.progress
	}
	if err := r.update(ctx, jobs.Fields{
		jobs.ColStatus:       jobs.StatusError,
		jobs.ColErrorMessage: message,
		jobs.ColProgress:     progress,
	}); err != nil {
		return fmt.Errorf("record %s failure: %w", stage, err)
	}

	kind := services.FailureKind(cause)
	attrs := []logging.Attr{
		logging.String(logging.FieldStage, stage),
		logging.String("failure_kind", kind),
		logging.Int(logging.FieldProgress, r.progress),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	if kind == "rejected" {
		r.logger.Info("job rejected", logging.Args(append(attrs, logging.String(logging.FieldEventType, "job_rejected"))...)...)
	} else {
		logging.ErrorWithContext(r.logger, "job stage failed", "stage_failure", attrs...)
	}

	r.o.notify(ctx, notifications.EventJobFailed, notifications.Payload{
		"filename": r.job.OriginalFilename,
		"error":    message,
		"kind":     kind,
	})
	return nil
}

func (r *jobRun) execute(ctx context.Context) error {
	o := r.o
	id := r.job.ID

	if err := r.update(ctx, jobs.Fields{
		jobs.ColStatus:       jobs.StatusProcessing,
		jobs.ColErrorMessage: nil,
		jobs.ColProgress:     max(r.progress, ProgressStarted),
	}); err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	r.logger.Info("job processing started", logging.String("filename", r.job.OriginalFilename))

	wavPath := o.cfg.StoragePath(config.WavDir, id+".wav")
	if err := o.transcoder.Transcode(services.WithStage(ctx, StageTranscode), r.job.SourcePath, wavPath); err != nil {
		return r.fail(ctx, StageTranscode, 0, fmt.Sprintf(msgTranscodeFailed, err), err)
	}
	if err := r.update(ctx, jobs.Fields{jobs.ColWavPath: wavPath, jobs.ColProgress: ProgressTranscoded}); err != nil {
		return err
	}

	analysis, err := o.classify(wavPath)
	if err != nil {
		wrapped := services.Wrap(services.ErrValidation, StageAnalyze, "", "classification failed", err)
		return r.fail(ctx, StageAnalyze, progressAnalysisFailed, fmt.Sprintf(msgAnalysisFailed, err), wrapped)
	}
	audioType, profile := SelectProfile(analysis)
	r.logDecision(analysis, audioType, profile, "initial analysis")

	if limit := o.cfg.Limits.MaxSeconds; limit > 0 && analysis.DurationSeconds > float64(limit) {
		if err := r.update(ctx, jobs.Fields{jobs.ColDurationSeconds: int(analysis.DurationSeconds)}); err != nil {
			return err
		}
		cause := services.Wrap(services.ErrContentRejected, StageAnalyze, "duration", fmt.Sprintf("%.1fs exceeds %ds", analysis.DurationSeconds, limit), nil)
		return r.fail(ctx, StageAnalyze, progressAnalysisFailed, TooLongMessage(limit), cause)
	}
	if err := r.update(ctx, analysisFields(analysis, audioType, profile, ProgressAnalyzed)); err != nil {
		return err
	}

	current := wavPath
	suppressed := false
	var separationProvider string

	if audioType == jobs.AudioMusic {
		suppressedPath := o.cfg.StoragePath(config.ProcessedDir, id+"_suppressed.wav")
		provider, err := o.suppressor.Run(services.WithStage(ctx, StageSuppress), current, suppressedPath)
		if err != nil {
			return r.fail(ctx, StageSuppress, ProgressSuppressed, fmt.Sprintf(msgSuppressFailed, err), err)
		}
		current, suppressed, separationProvider = suppressedPath, true, provider

		refreshed, err := o.classify(current)
		if err != nil {
			wrapped := services.Wrap(services.ErrValidation, StageSuppress, "reclassify", "classification failed", err)
			return r.fail(ctx, StageSuppress, ProgressSuppressed, fmt.Sprintf(msgSuppressFailed, err), wrapped)
		}
		if refreshed.SpeechRatio < MinSpeechRatioAfterSuppression {
			fields := analysisFields(refreshed, jobs.AudioMusic, jobs.ProfileMusicMixed, ProgressSuppressed)
			fields[jobs.ColSeparationProvider] = separationProvider
			if err := r.update(ctx, fields); err != nil {
				return err
			}
			cause := services.Wrap(services.ErrContentRejected, StageSuppress, "", fmt.Sprintf("speech ratio %.3f after suppression", refreshed.SpeechRatio), nil)
			return r.fail(ctx, StageSuppress, ProgressDenoised, MessageMusicOnly, cause)
		}
		audioType, profile = SelectProfile(refreshed)
		r.logDecision(refreshed, audioType, profile, "re-analysis after music suppression")
		fields := analysisFields(refreshed, audioType, profile, ProgressSuppressed)
		fields[jobs.ColSeparationProvider] = separationProvider
		if err := r.update(ctx, fields); err != nil {
			return err
		}
	}

	if audioType == jobs.AudioMixed && !suppressed {
		suppressedPath := o.cfg.StoragePath(config.ProcessedDir, id+"_suppressed.wav")
		provider, err := o.suppressor.Run(services.WithStage(ctx, StageSuppress), current, suppressedPath)
		if err != nil {
			return r.fail(ctx, StageSuppress, ProgressSuppressed, fmt.Sprintf(msgSuppressFailed, err), err)
		}
		current, separationProvider = suppressedPath, provider
		if err := r.update(ctx, jobs.Fields{jobs.ColSeparationProvider: separationProvider, jobs.ColProgress: ProgressSuppressed}); err != nil {
			return err
		}
	}

	denoisedPath := o.cfg.StoragePath(config.DenoisedDir, id+".wav")
	denoiseProvider, err := o.denoiser.Run(services.WithStage(ctx, StageDenoise), current, denoisedPath)
	if err != nil {
		return r.fail(ctx, StageDenoise, ProgressDenoised, fmt.Sprintf(msgDenoiseFailed, err), err)
	}
	current = denoisedPath
	if err := r.update(ctx, jobs.Fields{
		jobs.ColProgress:        ProgressDenoised,
		jobs.ColWavPath:         current,
		jobs.ColAudioType:       audioType,
		jobs.ColASRProfile:      profile,
		jobs.ColDenoiseProvider: denoiseProvider,
	}); err != nil {
		return err
	}

	result, err := o.transcriber.Transcribe(services.WithStage(ctx, StageASR), current, profile)
	if err != nil {
		return r.fail(ctx, StageASR, ProgressASR, fmt.Sprintf(msgASRFailed, err), err)
	}
	if err := r.update(ctx, jobs.Fields{
		jobs.ColProgress:   ProgressASR,
		jobs.ColRawText:    result.Text,
		jobs.ColAudioType:  audioType,
		jobs.ColASRProfile: profile,
		jobs.ColASRBackend: result.Backend,
	}); err != nil {
		return err
	}

	cleaned, err := o.cleaner.Clean(services.WithStage(ctx, StageClean), result.Text)
	if err != nil {
		return r.fail(ctx, StageClean, ProgressCleaned, fmt.Sprintf(msgCleanFailed, err), err)
	}
	if err := r.update(ctx, jobs.Fields{jobs.ColProgress: ProgressCleaned, jobs.ColCleanedText: cleaned}); err != nil {
		return err
	}

	if err := r.update(ctx, jobs.Fields{jobs.ColStatus: jobs.StatusDone, jobs.ColProgress: ProgressDone}); err != nil {
		return err
	}
	r.logger.Info("job completed",
		logging.String("audio_type", audioType),
		logging.String("asr_profile", profile),
		logging.String("asr_backend", result.Backend),
		logging.String(logging.FieldEventType, "job_completed"),
	)
	o.notify(ctx, notifications.EventJobCompleted, notifications.Payload{
		"filename": r.job.OriginalFilename,
		"profile":  profile,
	})
	return nil
}

func (r *jobRun) logDecision(a audioanalysis.Analysis, audioType, profile, reason string) {
	attrs := logging.DecisionAttrs("asr_profile", profile, reason)
	attrs = append(attrs,
		logging.String("audio_type", audioType),
		logging.Float64("duration_seconds", a.DurationSeconds),
		logging.Float64("speech_ratio", a.SpeechRatio),
		logging.Float64("music_prob", a.MusicProbability),
		logging.Float64("snr_estimate", a.SNREstimate),
	)
	r.logger.Info("audio classified", logging.Args(attrs...)...)
}

func analysisFields(a audioanalysis.Analysis, audioType, profile string, progress int) jobs.Fields {
	return jobs.Fields{
		jobs.ColDurationSeconds: int(a.DurationSeconds),
		jobs.ColSpeechRatio:     a.SpeechRatio,
		jobs.ColMusicProb:       a.MusicProbability,
		jobs.ColSNREstimate:     a.SNREstimate,
		jobs.ColAudioType:       audioType,
		jobs.ColASRProfile:      profile,
		jobs.ColProgress:        progress,
	}
}

func (o *Orchestrator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			o.logger.Debug("shutting down, notification not sent")
			return
		}
		o.logger.Debug("job notification failed", logging.Error(err))
	}
}
