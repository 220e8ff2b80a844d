package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, status, progress, original_filename, source_path, wav_path, duration_seconds, audio_type, speech_ratio, music_prob, snr_estimate, asr_profile, raw_text, cleaned_text, error_message, denoise_provider, separation_provider, asr_backend, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id                 string
		statusStr          string
		progress           int
		originalFilename   sql.NullString
		sourcePath         sql.NullString
		wavPath            sql.NullString
		durationSeconds    sql.NullInt64
		audioType          sql.NullString
		speechRatio        sql.NullFloat64
		musicProb          sql.NullFloat64
		snrEstimate        sql.NullFloat64
		asrProfile         sql.NullString
		rawText            sql.NullString
		cleanedText        sql.NullString
		errorMessage       sql.NullString
		denoiseProvider    sql.NullString
		separationProvider sql.NullString
		asrBackend         sql.NullString
		createdRaw         sql.NullString
		updatedRaw         sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&progress,
		&originalFilename,
		&sourcePath,
		&wavPath,
		&durationSeconds,
		&audioType,
		&speechRatio,
		&musicProb,
		&snrEstimate,
		&asrProfile,
		&rawText,
		&cleanedText,
		&errorMessage,
		&denoiseProvider,
		&separationProvider,
		&asrBackend,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:                 id,
		Status:             Status(statusStr),
		Progress:           progress,
		OriginalFilename:   originalFilename.String,
		SourcePath:         sourcePath.String,
		WorkingAudioPath:   wavPath.String,
		AudioType:          audioType.String,
		ASRProfile:         asrProfile.String,
		RawText:            rawText.String,
		CleanedText:        cleanedText.String,
		ErrorMessage:       errorMessage.String,
		DenoiseProvider:    denoiseProvider.String,
		SeparationProvider: separationProvider.String,
		ASRBackend:         asrBackend.String,
	}
	if durationSeconds.Valid {
		v := int(durationSeconds.Int64)
		job.DurationSeconds = &v
	}
	job.SpeechRatio = nullFloatPtr(speechRatio)
	job.MusicProbability = nullFloatPtr(musicProb)
	job.SNREstimate = nullFloatPtr(snrEstimate)

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullFloatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// columnValue converts Fields values into driver-friendly arguments.
func columnValue(column string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case Status:
		return string(v), nil
	case string:
		return v, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return v, nil
	case *int:
		if v == nil {
			return nil, nil
		}
		return int64(*v), nil
	case *float64:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("column %s: unsupported value type %T", column, value)
	}
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
