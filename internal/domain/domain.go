package domain

import (
	"github.com/yungbote/storyfeed-backend/internal/domain/content"
	"github.com/yungbote/storyfeed-backend/internal/domain/views"
)

const (
	StoryStatusDraft     = content.StoryStatusDraft
	StoryStatusPublished = content.StoryStatusPublished
	StoryStatusArchived  = content.StoryStatusArchived

	InfoCardTypeProgress = content.InfoCardTypeProgress
	InfoCardTypeCulture  = content.InfoCardTypeCulture
	InfoCardTypeTip      = content.InfoCardTypeTip
)

type Story = content.Story
type InfoCard = content.InfoCard
type Keyword = content.Keyword

type ViewRecord = views.ViewRecord
