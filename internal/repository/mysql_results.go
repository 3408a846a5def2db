package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anime-shed/anemia-screen-go/pkg/models"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// AnalysisRecord is the persisted form of an analysis result
type AnalysisRecord struct {
	ID          string `gorm:"column:id;primaryKey;type:varchar(64)"`
	UserID      string `gorm:"column:user_id;type:varchar(128);index:idx_user_created"`
	ImageSource string `gorm:"column:image_source;type:varchar(1024)"`

	// Flattened for dashboard queries
	Tier               string  `gorm:"column:tier;type:varchar(16);not null;index:idx_tier"`
	RiskScore          float64 `gorm:"column:risk_score;not null"`
	Confidence         float64 `gorm:"column:confidence;not null"`
	PallorIndex        float64 `gorm:"column:pallor_index;not null"`
	HemoglobinEstimate float64 `gorm:"column:hemoglobin_estimate;not null"`
	SampledPixels      int     `gorm:"column:sampled_pixels;not null"`
	SkinPixels         int     `gorm:"column:skin_pixels;not null"`
	ProcessingTimeSec  float64 `gorm:"column:processing_time_sec;not null"`

	Metrics       datatypes.JSON `gorm:"column:metrics;type:json;not null"`
	Assessment    datatypes.JSON `gorm:"column:assessment;type:json;not null"`
	Image         datatypes.JSON `gorm:"column:image;type:json"`
	QualityIssues datatypes.JSON `gorm:"column:quality_issues;type:json"`
	Heatmap       []byte         `gorm:"column:heatmap;type:mediumblob"`

	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_user_created"`
}

// TableName pins the table name
func (AnalysisRecord) TableName() string {
	return "analysis_results"
}

// gormResultRepository implements ResultRepository on MySQL through gorm
type gormResultRepository struct {
	db *gorm.DB
}

// NewMySQLResultRepository opens the DSN and migrates the results table
func NewMySQLResultRepository(dsn string) (ResultRepository, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: open mysql: %v", ErrRepositoryUnavailable, err)
	}
	return NewGormResultRepository(db)
}

// NewGormResultRepository uses an existing gorm handle
func NewGormResultRepository(db *gorm.DB) (ResultRepository, error) {
	if err := db.AutoMigrate(&AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("migrate analysis_results: %w", err)
	}
	return &gormResultRepository{db: db}, nil
}

func (r *gormResultRepository) Save(ctx context.Context, result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return ErrInvalidResult
	}
	record, err := toRecord(result)
	if err != nil {
		return err
	}
	// Save upserts on the primary key
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *gormResultRepository) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var record AnalysisRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return fromRecord(&record)
}

func (r *gormResultRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisResult, error) {
	var records []AnalysisRecord

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	list := make([]*models.AnalysisResult, 0, len(records))
	for i := range records {
		result, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		list = append(list, result)
	}
	return list, nil
}

func (r *gormResultRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(result *models.AnalysisResult) (*AnalysisRecord, error) {
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return nil, err
	}
	assessment, err := json.Marshal(result.Assessment)
	if err != nil {
		return nil, err
	}

	record := &AnalysisRecord{
		ID:                 result.ID,
		UserID:             result.UserID,
		ImageSource:        result.ImageSource,
		Tier:               string(result.Assessment.Tier),
		RiskScore:          result.Assessment.RiskScore,
		Confidence:         result.Assessment.Confidence,
		PallorIndex:        result.Metrics.PallorIndex,
		HemoglobinEstimate: result.Metrics.HemoglobinEstimate,
		SampledPixels:      result.SampledPixels,
		SkinPixels:         result.SkinPixels,
		ProcessingTimeSec:  result.ProcessingTimeSec,
		Metrics:            datatypes.JSON(metrics),
		Assessment:         datatypes.JSON(assessment),
		Heatmap:            result.Heatmap,
		CreatedAt:          result.Timestamp,
	}

	if result.Image != nil {
		image, err := json.Marshal(result.Image)
		if err != nil {
			return nil, err
		}
		record.Image = datatypes.JSON(image)
	}
	if len(result.QualityIssues) > 0 {
		issues, err := json.Marshal(result.QualityIssues)
		if err != nil {
			return nil, err
		}
		record.QualityIssues = datatypes.JSON(issues)
	}
	return record, nil
}

func fromRecord(record *AnalysisRecord) (*models.AnalysisResult, error) {
	result := &models.AnalysisResult{
		ID:                record.ID,
		UserID:            record.UserID,
		ImageSource:       record.ImageSource,
		Timestamp:         record.CreatedAt,
		ProcessingTimeSec: record.ProcessingTimeSec,
		SampledPixels:     record.SampledPixels,
		SkinPixels:        record.SkinPixels,
		Heatmap:           record.Heatmap,
	}

	if err := json.Unmarshal(record.Metrics, &result.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics of %s: %w", record.ID, err)
	}
	if err := json.Unmarshal(record.Assessment, &result.Assessment); err != nil {
		return nil, fmt.Errorf("decode assessment of %s: %w", record.ID, err)
	}
	if len(record.Image) > 0 {
		result.Image = &models.ImageMetadata{}
		if err := json.Unmarshal(record.Image, result.Image); err != nil {
			return nil, fmt.Errorf("decode image metadata of %s: %w", record.ID, err)
		}
	}
	if len(record.QualityIssues) > 0 {
		if err := json.Unmarshal(record.QualityIssues, &result.QualityIssues); err != nil {
			return nil, fmt.Errorf("decode quality issues of %s: %w", record.ID, err)
		}
	}
	return result, nil
}
