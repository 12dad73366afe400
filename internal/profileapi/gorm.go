package profileapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kingrea/profile-wizard/internal/profile"
)

type profileRow struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"size:191;uniqueIndex"`
	FullName     string `gorm:"size:255"`
	DateOfBirth  string `gorm:"size:10"`
	Location     string `gorm:"size:255"`
	Headline     string `gorm:"size:120"`
	Summary      string `gorm:"type:text"`
	Volunteering string `gorm:"type:longtext"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Educations     []educationRow     `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Experiences    []experienceRow    `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Projects       []projectRow       `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Skills         []skillRow         `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Certifications []certificationRow `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

func (profileRow) TableName() string { return "profiles" }

type educationRow struct {
	ID           uint   `gorm:"primaryKey"`
	ProfileID    uint   `gorm:"index"`
	Position     int
	RecordID     string `gorm:"size:64"`
	Institution  string `gorm:"size:255"`
	Level        string `gorm:"size:32"`
	FieldOfStudy string `gorm:"size:255"`
	StartDate    string `gorm:"size:10"`
	EndDate      string `gorm:"size:10"`
	IsCurrent    bool
	Grade        string `gorm:"size:64"`
	Description  string `gorm:"type:text"`
	Skills       string `gorm:"type:text"`
}

func (educationRow) TableName() string { return "profile_educations" }

type experienceRow struct {
	ID            uint   `gorm:"primaryKey"`
	ProfileID     uint   `gorm:"index"`
	Position      int
	RecordID      string `gorm:"size:64"`
	Company       string `gorm:"size:255"`
	RoleTitle     string `gorm:"size:255"`
	StartDate     string `gorm:"size:10"`
	EndDate       string `gorm:"size:10"`
	IsCurrent     bool
	Description   string `gorm:"type:text"`
	ReferralName  string `gorm:"size:255"`
	ReferralEmail string `gorm:"size:255"`
}

func (experienceRow) TableName() string { return "profile_experiences" }

type projectRow struct {
	ID            uint   `gorm:"primaryKey"`
	ProfileID     uint   `gorm:"index"`
	Position      int
	RecordID      string `gorm:"size:64"`
	Title         string `gorm:"size:255"`
	Description   string `gorm:"type:text"`
	Technologies  string `gorm:"type:text"`
	Tools         string `gorm:"type:text"`
	StartDate     string `gorm:"size:10"`
	EndDate       string `gorm:"size:10"`
	GithubLink    string `gorm:"size:512"`
	LiveLink      string `gorm:"size:512"`
	Contribution  string `gorm:"type:text"`
	ReferralName  string `gorm:"size:255"`
	ReferralEmail string `gorm:"size:255"`
}

func (projectRow) TableName() string { return "profile_projects" }

type skillRow struct {
	ID          uint   `gorm:"primaryKey"`
	ProfileID   uint   `gorm:"index"`
	Position    int
	RecordID    string `gorm:"size:64"`
	Name        string `gorm:"size:255"`
	Proficiency int
}

func (skillRow) TableName() string { return "profile_skills" }

type certificationRow struct {
	ID            uint   `gorm:"primaryKey"`
	ProfileID     uint   `gorm:"index"`
	Position      int
	RecordID      string `gorm:"size:64"`
	Name          string `gorm:"size:255"`
	Issuer        string `gorm:"size:255"`
	IssueDate     string `gorm:"size:10"`
	ExpiryDate    string `gorm:"size:10"`
	CredentialURL string `gorm:"size:512"`
	DoesNotExpire bool
}

func (certificationRow) TableName() string { return "profile_certifications" }

var childModels = []any{&educationRow{}, &experienceRow{}, &projectRow{}, &skillRow{}, &certificationRow{}}

// GormRepository stores profiles in MySQL through gorm.
type GormRepository struct {
	db *gorm.DB
}

// OpenMySQL connects with the given DSN and migrates the schema.
func OpenMySQL(dsn string) (*GormRepository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("profileapi: mysql dsn is required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("profileapi: connect mysql: %w", err)
	}
	return NewGormRepository(db)
}

// NewGormRepository migrates the schema on an open connection.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	models := append([]any{&profileRow{}}, childModels...)
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("profileapi: migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Replace(ctx context.Context, userID string, d profile.Draft) (StoredProfile, error) {
	var saved profileRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing profileRow
		err := tx.Where("user_id = ?", userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		default:
			for _, model := range childModels {
				if err := tx.Where("profile_id = ?", existing.ID).Delete(model).Error; err != nil {
					return err
				}
			}
		}
		next, err := toProfileRow(userID, d)
		if err != nil {
			return err
		}
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return StoredProfile{}, fmt.Errorf("profileapi: replace profile: %w", err)
	}
	return fromProfileRow(saved)
}

func (r *GormRepository) Get(ctx context.Context, userID string) (StoredProfile, error) {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }
	var row profileRow
	err := r.db.WithContext(ctx).
		Preload("Educations", byPosition).
		Preload("Experiences", byPosition).
		Preload("Projects", byPosition).
		Preload("Skills", byPosition).
		Preload("Certifications", byPosition).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StoredProfile{}, ErrNotFound
	}
	if err != nil {
		return StoredProfile{}, fmt.Errorf("profileapi: load profile: %w", err)
	}
	return fromProfileRow(row)
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toProfileRow(userID string, d profile.Draft) (profileRow, error) {
	volunteering, err := json.Marshal(d.Volunteering)
	if err != nil {
		return profileRow{}, fmt.Errorf("encode volunteering: %w", err)
	}
	row := profileRow{
		UserID:       userID,
		FullName:     d.BasicInfo.FullName,
		DateOfBirth:  d.BasicInfo.DateOfBirth,
		Location:     d.BasicInfo.Location,
		Headline:     d.BasicInfo.Headline,
		Summary:      d.BasicInfo.Summary,
		Volunteering: string(volunteering),
	}
	for i, e := range d.Educations {
		skills, err := json.Marshal(e.Skills)
		if err != nil {
			return profileRow{}, fmt.Errorf("encode education skills: %w", err)
		}
		row.Educations = append(row.Educations, educationRow{
			Position: i, RecordID: e.ID, Institution: e.Institution, Level: string(e.Level),
			FieldOfStudy: e.FieldOfStudy, StartDate: e.StartDate, EndDate: e.EndDate,
			IsCurrent: e.IsCurrent, Grade: e.Grade, Description: e.Description, Skills: string(skills),
		})
	}
	for i, e := range d.Experiences {
		row.Experiences = append(row.Experiences, experienceRow{
			Position: i, RecordID: e.ID, Company: e.Company, RoleTitle: e.RoleTitle,
			StartDate: e.StartDate, EndDate: e.EndDate, IsCurrent: e.IsCurrent,
			Description: e.Description, ReferralName: e.ReferralName, ReferralEmail: e.ReferralEmail,
		})
	}
	for i, p := range d.Projects {
		row.Projects = append(row.Projects, projectRow{
			Position: i, RecordID: p.ID, Title: p.Title, Description: p.Description,
			Technologies: p.Technologies, Tools: p.Tools, StartDate: p.StartDate, EndDate: p.EndDate,
			GithubLink: p.GithubLink, LiveLink: p.LiveLink, Contribution: p.Contribution,
			ReferralName: p.ReferralName, ReferralEmail: p.ReferralEmail,
		})
	}
	for i, s := range d.Skills {
		row.Skills = append(row.Skills, skillRow{Position: i, RecordID: s.ID, Name: s.Name, Proficiency: s.Proficiency})
	}
	for i, c := range d.Certifications {
		row.Certifications = append(row.Certifications, certificationRow{
			Position: i, RecordID: c.ID, Name: c.Name, Issuer: c.Issuer, IssueDate: c.IssueDate,
			ExpiryDate: c.ExpiryDate, CredentialURL: c.CredentialURL, DoesNotExpire: c.DoesNotExpire,
		})
	}
	return row, nil
}

func fromProfileRow(row profileRow) (StoredProfile, error) {
	d := profile.Draft{
		BasicInfo: profile.BasicInfo{
			FullName:    row.FullName,
			DateOfBirth: row.DateOfBirth,
			Location:    row.Location,
			Headline:    row.Headline,
			Summary:     row.Summary,
		},
	}
	if row.Volunteering != "" {
		if err := json.Unmarshal([]byte(row.Volunteering), &d.Volunteering); err != nil {
			return StoredProfile{}, fmt.Errorf("profileapi: decode volunteering: %w", err)
		}
	}
	for _, e := range row.Educations {
		var skills []string
		if e.Skills != "" {
			if err := json.Unmarshal([]byte(e.Skills), &skills); err != nil {
				return StoredProfile{}, fmt.Errorf("profileapi: decode education skills: %w", err)
			}
		}
		d.Educations = append(d.Educations, profile.Education{
			ID: e.RecordID, Institution: e.Institution, Level: profile.EducationLevel(e.Level),
			FieldOfStudy: e.FieldOfStudy, StartDate: e.StartDate, EndDate: e.EndDate,
			IsCurrent: e.IsCurrent, Grade: e.Grade, Description: e.Description, Skills: skills,
		})
	}
	for _, e := range row.Experiences {
		d.Experiences = append(d.Experiences, profile.Experience{
			ID: e.RecordID, Company: e.Company, RoleTitle: e.RoleTitle, StartDate: e.StartDate,
			EndDate: e.EndDate, IsCurrent: e.IsCurrent, Description: e.Description,
			ReferralName: e.ReferralName, ReferralEmail: e.ReferralEmail,
		})
	}
	for _, p := range row.Projects {
		d.Projects = append(d.Projects, profile.Project{
			ID: p.RecordID, Title: p.Title, Description: p.Description, Technologies: p.Technologies,
			Tools: p.Tools, StartDate: p.StartDate, EndDate: p.EndDate, GithubLink: p.GithubLink,
			LiveLink: p.LiveLink, Contribution: p.Contribution,
			ReferralName: p.ReferralName, ReferralEmail: p.ReferralEmail,
		})
	}
	for _, s := range row.Skills {
		d.Skills = append(d.Skills, profile.Skill{ID: s.RecordID, Name: s.Name, Proficiency: s.Proficiency})
	}
	for _, c := range row.Certifications {
		d.Certifications = append(d.Certifications, profile.Certification{
			ID: c.RecordID, Name: c.Name, Issuer: c.Issuer, IssueDate: c.IssueDate,
			ExpiryDate: c.ExpiryDate, CredentialURL: c.CredentialURL, DoesNotExpire: c.DoesNotExpire,
		})
	}
	return StoredProfile{
		ID:        strconv.FormatUint(uint64(row.ID), 10),
		UserID:    row.UserID,
		Draft:     d.Normalized(),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
