package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/adi29tyax/omniai-hub-backend/models"
	"github.com/adi29tyax/omniai-hub-backend/stages"
)

// ErrNotFound means a referenced project/story/scene/shot/asset row does not
// exist. Handlers map it to 404.
var ErrNotFound = errors.New("entity not found")

// Store is the persistent record of the project/asset graph. All multi-row
// writes run inside transactions; asset rows are append-only.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate creates the director tables.
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Project{},
		&models.Story{},
		&models.Character{},
		&models.Scene{},
		&models.Shot{},
		&models.Asset{},
		&models.UserUsage{},
	)
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Projects ---

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *Store) Project(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

func (s *Store) ProjectsByUser(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&projects).Error
	return projects, err
}

func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Project{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Story graph ---

// CreateStoryGraph persists a story outline with its characters and ordered
// scenes in one transaction.
func (s *Store) CreateStoryGraph(ctx context.Context, projectID uint, outline *stages.StoryOutline, style string) (*models.Story, error) {
	story := &models.Story{
		ProjectID: projectID,
		Title:     outline.Title,
		Logline:   outline.Logline,
		Theme:     outline.Theme,
		Setting:   outline.Setting,
		Style:     style,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(story).Error; err != nil {
			return err
		}
		for _, c := range outline.Characters {
			char := models.Character{
				StoryID:     story.ID,
				Name:        c.Name,
				Role:        c.Role,
				Description: c.Description,
				Personality: c.Personality,
				VisualStyle: c.VisualStyle,
				VoiceStyle:  c.VoiceStyle,
			}
			if err := tx.Create(&char).Error; err != nil {
				return err
			}
		}
		for i, sc := range outline.Scenes {
			sceneID := sc.SceneID
			if sceneID == "" {
				sceneID = fmt.Sprintf("SCENE-%02d", i+1)
			}
			scene := models.Scene{
				StoryID:     story.ID,
				SceneNumber: i + 1,
				SceneID:     sceneID,
				Title:       sc.Title,
				Summary:     sc.Summary,
				Location:    sc.Location,
				TimeOfDay:   sc.TimeOfDay,
			}
			if err := tx.Create(&scene).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return story, nil
}

func (s *Store) Story(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	if err := s.DB.WithContext(ctx).First(&story, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &story, nil
}

func (s *Store) ScenesByStory(ctx context.Context, storyID uint) ([]models.Scene, error) {
	var scenes []models.Scene
	err := s.DB.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("scene_number asc").
		Find(&scenes).Error
	return scenes, err
}

func (s *Store) CharactersByStory(ctx context.Context, storyID uint) ([]models.Character, error) {
	var chars []models.Character
	err := s.DB.WithContext(ctx).Where("story_id = ?", storyID).Find(&chars).Error
	return chars, err
}

func (s *Store) Scene(ctx context.Context, id uint) (*models.Scene, error) {
	var scene models.Scene
	if err := s.DB.WithContext(ctx).First(&scene, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &scene, nil
}

func (s *Store) Shot(ctx context.Context, id uint) (*models.Shot, error) {
	var shot models.Shot
	if err := s.DB.WithContext(ctx).First(&shot, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &shot, nil
}

func (s *Store) ShotsByScene(ctx context.Context, sceneID uint) ([]models.Shot, error) {
	var shots []models.Shot
	err := s.DB.WithContext(ctx).
		Where("scene_id = ?", sceneID).
		Order("shot_number asc").
		Find(&shots).Error
	return shots, err
}

// ReplaceShots swaps a scene's shot list for the given one. Delete and
// insert run in one transaction so a scene only ever holds shots from a
// single breakdown generation.
func (s *Store) ReplaceShots(ctx context.Context, sceneID uint, shots []models.Shot) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scene_id = ?", sceneID).Delete(&models.Shot{}).Error; err != nil {
			return err
		}
		for i := range shots {
			shots[i].ID = 0
			shots[i].SceneID = sceneID
			shots[i].ShotNumber = i + 1
			if err := tx.Create(&shots[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Assets ---

func (s *Store) CreateAsset(ctx context.Context, a *models.Asset) error {
	if a.Version == 0 {
		a.Version = 1
	}
	return s.DB.WithContext(ctx).Create(a).Error
}

// LatestAssetByShot returns the most recent asset of the given type for a
// shot. Recency ordering is the de facto versioning mechanism.
func (s *Store) LatestAssetByShot(ctx context.Context, shotID uint, assetType string) (*models.Asset, error) {
	var a models.Asset
	err := s.DB.WithContext(ctx).
		Where("shot_id = ? AND type = ?", shotID, assetType).
		Order("created_at desc").
		First(&a).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

// AssetsByScene lists a scene's assets, filtered by type when one is given.
func (s *Store) AssetsByScene(ctx context.Context, sceneID uint, assetType string) ([]models.Asset, error) {
	q := s.DB.WithContext(ctx).Where("scene_id = ?", sceneID)
	if assetType != "" {
		q = q.Where("type = ?", assetType)
	}
	var assets []models.Asset
	err := q.Order("created_at asc").Find(&assets).Error
	return assets, err
}

func (s *Store) AssetsByProject(ctx context.Context, projectID uint) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.DB.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&assets).Error
	return assets, err
}
