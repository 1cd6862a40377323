package tracker

import (
	"fmt"

	"github.com/Tiliavir/study-time-tracker/internal/config"
	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/storage"
)

// ExportJSON writes the study to path, or to the last used file when path
// is empty, and records the file as last used. It returns the written path.
func (t *Tracker) ExportJSON(path string) (string, error) {
	path, err := t.resolvePath(path, model.ErrInvalidArgument)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	err = storage.SaveStudy(path, t.study)
	t.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := t.rememberPath(path); err != nil {
		return path, err
	}
	t.logger.Info().Str("file", path).Msg("study exported")
	return path, nil
}

// ImportJSON replaces the study by the one stored at path, or at the last
// used file when path is empty. A running session is stopped first. A
// missing file, or no file at all, yields an error matching
// model.ErrFileNotFound.
func (t *Tracker) ImportJSON(path string) (string, error) {
	path, err := t.resolvePath(path, model.ErrFileNotFound)
	if err != nil {
		return "", err
	}
	study, err := storage.LoadStudy(path, t.defaults)
	if err != nil {
		return "", err
	}

	if t.IsTracking() {
		if _, err := t.StopTracking(); err != nil {
			return "", err
		}
	}
	t.mu.Lock()
	t.study = study
	t.mu.Unlock()

	if err := t.rememberPath(path); err != nil {
		return path, err
	}
	t.logger.Info().Str("file", path).Int("semesters", len(study.Semesters())).Msg("study imported")
	t.emitRefresh()
	return path, nil
}

// resolvePath fails with missing when neither path nor a last used file
// is available.
func (t *Tracker) resolvePath(path string, missing error) (string, error) {
	if path == "" && t.settings != nil {
		path, _ = t.settings.Get(config.KeyLastUsedFile, "").(string)
	}
	if path == "" {
		return "", fmt.Errorf("no file given and no last used file recorded: %w", missing)
	}
	return storage.ExpandPath(path)
}

func (t *Tracker) rememberPath(path string) error {
	if t.settings == nil {
		return nil
	}
	if last, _ := t.settings.Get(config.KeyLastUsedFile, "").(string); last == path {
		return nil
	}
	if err := t.settings.Set(config.KeyLastUsedFile, path); err != nil {
		return fmt.Errorf("saving last used file: %w", err)
	}
	return nil
}
