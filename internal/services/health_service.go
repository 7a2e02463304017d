package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kuk1song/fitness-advisor/internal/dto"
	"github.com/kuk1song/fitness-advisor/internal/keylock"
	"github.com/kuk1song/fitness-advisor/internal/models"
)

var ErrProfileNotFound = errors.New("no health profile found")

// SimilarityIndex is the similarity-store capability the pipeline consumes.
// Implemented by vectorstore.Store; tests inject fakes.
type SimilarityIndex interface {
	Upsert(ctx context.Context, userID uuid.UUID, data models.HealthData) error
	Search(ctx context.Context, data models.HealthData) ([]string, error)
}

// AdviceGenerator produces advice text from a goal and similar profiles.
// Implemented by advisor.Advisor; tests inject fakes.
type AdviceGenerator interface {
	Advise(ctx context.Context, goal string, similarProfiles []string) (string, error)
}

// Identity is the authenticated caller, resolved from token claims. Profile
// identity fields always come from here, never from a request body.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// SubmitResult is the assembled outcome of a successful pipeline run.
type SubmitResult struct {
	Profile      *models.HealthProfile
	Version      string
	SimilarCases []string
	Advice       string
}

// HealthService runs the profile versioning and advice pipeline: archive the
// current profile into history, install the new one, refresh the similarity
// index, retrieve comparable profiles and generate advice.
type HealthService struct {
	db      *gorm.DB
	index   SimilarityIndex
	advisor AdviceGenerator
	locks   *keylock.KeyedMutex
}

func NewHealthService(db *gorm.DB, index SimilarityIndex, advisor AdviceGenerator) *HealthService {
	return &HealthService{
		db:      db,
		index:   index,
		advisor: advisor,
		locks:   keylock.New(),
	}
}

// Profile returns the caller's active profile, or ErrProfileNotFound.
func (s *HealthService) Profile(ctx context.Context, userID uuid.UUID) (*models.HealthProfile, error) {
	var profile models.HealthProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// History returns the caller's history entries, newest first.
func (s *HealthService) History(ctx context.Context, userID uuid.UUID) ([]models.HealthHistory, error) {
	var entries []models.HealthHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("record_date DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch health history: %w", err)
	}
	return entries, nil
}

// Versions returns the version metadata of the caller's history entries in
// numerically descending version order. Versions are decimal strings, so the
// sort parses them rather than comparing lexically ("10.0" > "9.0").
func (s *HealthService) Versions(ctx context.Context, userID uuid.UUID) ([]dto.VersionInfo, error) {
	var entries []models.HealthHistory
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch version history: %w", err)
	}

	infos := make([]dto.VersionInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, dto.VersionInfo{
			Version:        e.Metadata.Version,
			RecordType:     e.Metadata.RecordType,
			LastUpdateTime: e.Metadata.LastUpdateTime,
			RecordDate:     e.RecordDate,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		vi, _ := strconv.ParseFloat(infos[i].Version, 64)
		vj, _ := strconv.ParseFloat(infos[j].Version, 64)
		return vi > vj
	})
	return infos, nil
}

// Submit runs the full pipeline for one submission. Writes for the same user
// are serialized through a per-user lock so version numbers stay monotonic
// and gapless under concurrent requests. Once the profile and history writes
// have committed, indexing and advice failures surface as errors without
// rolling those writes back.
func (s *HealthService) Submit(ctx context.Context, user Identity, data models.HealthData) (*SubmitResult, error) {
	key := user.ID.String()
	s.locks.Lock(key)

	profile, version, err := s.archiveAndReplace(ctx, user, data)
	if err != nil {
		s.locks.Unlock(key)
		return nil, err
	}

	// The index write also runs under the lock so a concurrent submission
	// cannot land an older vector on top of a newer one.
	if err := s.index.Upsert(ctx, user.ID, data); err != nil {
		s.locks.Unlock(key)
		return nil, err
	}
	s.locks.Unlock(key)

	similar, err := s.index.Search(ctx, data)
	if err != nil {
		return nil, err
	}

	advice, err := s.advisor.Advise(ctx, data.Goal, similar)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		Profile:      profile,
		Version:      version,
		SimilarCases: similar,
		Advice:       advice,
	}, nil
}

// archiveAndReplace snapshots the current state into history and installs
// the new profile. The history write happens first and aborts everything on
// failure; the delete/insert swap runs in one transaction so the user is
// never left without an active profile.
func (s *HealthService) archiveAndReplace(ctx context.Context, user Identity, data models.HealthData) (*models.HealthProfile, string, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	var existing models.HealthProfile
	err := db.Where("user_id = ?", user.ID).First(&existing).Error
	hasProfile := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to look up profile: %w", err)
	}

	entry := models.HealthHistory{
		ID:         uuid.New(),
		RecordDate: now,
	}

	version := "1.0"
	if hasProfile {
		version, err = s.nextVersion(db, user.ID)
		if err != nil {
			return nil, "", err
		}
		// Archive the profile being replaced, not the submission.
		entry.UserID = existing.UserID
		entry.UserEmail = existing.UserEmail
		entry.UserName = existing.UserName
		entry.HealthData = datatypes.NewJSONType(existing.HealthData)
		entry.Metadata = models.HistoryMetadata{
			RecordType:     models.RecordTypeUpdate,
			Version:        version,
			Tags:           datatypes.NewJSONSlice([]string{}),
			LastUpdateTime: now,
		}
	} else {
		entry.UserID = user.ID
		entry.UserEmail = user.Email
		entry.UserName = user.Name
		entry.HealthData = datatypes.NewJSONType(data)
		entry.Metadata = models.HistoryMetadata{
			RecordType:     models.RecordTypeInitial,
			Version:        version,
			Tags:           datatypes.NewJSONSlice([]string{}),
			LastUpdateTime: now,
		}
	}

	if err := db.Create(&entry).Error; err != nil {
		return nil, "", fmt.Errorf("failed to archive health history: %w", err)
	}

	newProfile := models.HealthProfile{
		ID:         uuid.New(),
		UserID:     user.ID,
		UserEmail:  user.Email,
		UserName:   user.Name,
		HealthData: data,
		UpdatedAt:  now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if hasProfile {
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.HealthProfile{}).Error; err != nil {
				return fmt.Errorf("failed to delete old profile: %w", err)
			}
		}
		if err := tx.Create(&newProfile).Error; err != nil {
			return fmt.Errorf("failed to save new profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return &newProfile, version, nil
}

// nextVersion computes the version for the history entry about to be
// written: the numeric maximum of the user's existing versions plus 1.0.
func (s *HealthService) nextVersion(db *gorm.DB, userID uuid.UUID) (string, error) {
	var versions []string
	err := db.Model(&models.HealthHistory{}).
		Where("user_id = ?", userID).
		Pluck("meta_version", &versions).Error
	if err != nil {
		return "", fmt.Errorf("failed to load history versions: %w", err)
	}

	// A profile without history is inconsistent state; restart the version
	// sequence rather than fail the submission.
	if len(versions) == 0 {
		return "1.0", nil
	}

	var max float64
	for _, v := range versions {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > max {
			max = f
		}
	}
	return fmt.Sprintf("%.1f", max+1), nil
}
