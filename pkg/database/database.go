package database

import (
	"fmt"
	"log"
	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Prospect{},
		&model.OutreachLog{},
		&model.OutreachTemplate{},
		&model.Notification{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// Default outreach templates
	var count int64
	db.Model(&model.OutreachTemplate{}).Count(&count)
	if count == 0 {
		defaults := []model.OutreachTemplate{
			{
				Name:    "intro-email",
				Method:  model.OutreachEmail,
				Subject: "Opportunity with our scouting program",
				Body:    "Hi {{name}},\n\nWe watched your recent matches and were impressed by your play at {{position}}. We would love to talk about placement pathways.\n\nBest,\n{{scout}}",
				Enabled: true,
			},
			{
				Name:    "followup-whatsapp",
				Method:  model.OutreachWhatsApp,
				Body:    "Hi {{name}}, just following up on our earlier message about the scouting program. Let us know if you are interested!",
				Enabled: true,
			},
			{
				Name:    "assessment-invite",
				Method:  model.OutreachEmail,
				Subject: "Your player assessment link",
				Body:    "Hi {{name}},\n\nPlease complete the short assessment at the link below so we can evaluate your fit: {{link}}\n\n{{scout}}",
				Enabled: true,
			},
		}
		for _, t := range defaults {
			db.Create(&t)
		}
	}

	return db, nil
}
