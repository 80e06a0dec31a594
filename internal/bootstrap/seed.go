package bootstrap

import (
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Category{},
		&model.SkillListing{},
		&model.SkillReview{},
		&model.SwapRequest{},
		&model.SwapTransaction{},
		&model.SwapReview{},
		&model.Conversation{},
		&model.Message{},
		&model.Notification{},
		&model.Announcement{},
		&model.AnnouncementRead{},
		&model.Report{},
		&model.UserActivity{},
		&model.DailyAnalytics{},
	); err != nil {
		return err
	}

	// Concurrent identical pending creates must collapse to one row.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_swap_requests_pending_dedup
		 ON swap_requests (requesting_user_id, requesting_skill_id)
		 WHERE status = 'pending'`,
	).Error
}

// SeedCategories inserts the default skill categories once.
func SeedCategories(db *gorm.DB) error {
	defaults := []model.Category{
		{Name: "Technology", Description: "Programming, IT and digital skills", Icon: "laptop"},
		{Name: "Languages", Description: "Language learning and translation", Icon: "globe"},
		{Name: "Arts & Crafts", Description: "Drawing, painting and handmade crafts", Icon: "palette"},
		{Name: "Music", Description: "Instruments, singing and production", Icon: "music"},
		{Name: "Cooking", Description: "Cuisine, baking and nutrition", Icon: "utensils"},
		{Name: "Fitness", Description: "Sports, training and wellbeing", Icon: "dumbbell"},
		{Name: "Business", Description: "Marketing, finance and entrepreneurship", Icon: "briefcase"},
		{Name: "Education", Description: "Tutoring and academic subjects", Icon: "book"},
	}

	for _, category := range defaults {
		var count int64
		if err := db.Model(&model.Category{}).
			Where("name = ?", category.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&category).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates a development staff account. Intended for
// development environments only.
func SeedAdminUser(db *gorm.DB) error {
	log := logger.Component("bootstrap")

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@skillexchange.local").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Msg("admin user already exists, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Username:     "admin",
		Email:        "admin@skillexchange.local",
		PasswordHash: string(hashed),
		FirstName:    "Platform",
		LastName:     "Admin",
		IsStaff:      true,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	if err := db.Create(&model.Profile{UserID: admin.ID}).Error; err != nil {
		return err
	}

	log.Info().Str("email", admin.Email).Msg("admin user seeded")
	return nil
}
