package bot

import (
	"github.com/iamwavecut/ngmod/internal/db"
	"github.com/iamwavecut/ngmod/internal/i18n"
)

type service struct {
	gateway         Gateway
	db              db.Client
	defaultLanguage string
}

func NewService(gateway Gateway, db db.Client, defaultLanguage string) Service {
	return &service{
		gateway:         gateway,
		db:              db,
		defaultLanguage: defaultLanguage,
	}
}

func (s *service) GetGateway() Gateway {
	return s.gateway
}

func (s *service) GetDB() db.Client {
	return s.db
}

// GetLanguage prefers the author's language when replies can be rendered in it.
func (s *service) GetLanguage(msg *Message) string {
	if msg != nil && msg.Language != "" && i18n.IsSupported(msg.Language) {
		return msg.Language
	}
	return s.defaultLanguage
}
