package i18n

import (
	"strings"
	"sync"

	"github.com/iamwavecut/ngmod/resources"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const translationsFile = "i18n/translations.yml"

var state = struct {
	sync.RWMutex
	once            sync.Once
	translations    map[string]map[string]string
	defaultLanguage string
}{
	defaultLanguage: "en",
}

func load() {
	content, err := resources.FS.ReadFile(translationsFile)
	if err != nil {
		log.WithField("error", err.Error()).Errorln("cant load i18n")
		return
	}
	dict := map[string]map[string]string{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		log.WithField("error", err.Error()).Errorln("cant unmarshal i18n")
		return
	}
	state.Lock()
	state.translations = dict
	state.Unlock()
}

// SetDefaultLanguage sets the language used when Get is called with an empty one.
func SetDefaultLanguage(lang string) {
	state.Lock()
	defer state.Unlock()
	if lang != "" {
		state.defaultLanguage = strings.ToLower(lang)
	}
}

func DefaultLanguage() string {
	state.RLock()
	defer state.RUnlock()
	return state.defaultLanguage
}

// Get returns the translation of key, falling back to the key itself.
func Get(key, lang string) string {
	if lang == "" {
		lang = DefaultLanguage()
	}
	lang = baseLanguage(lang)
	if lang == "en" {
		return key
	}
	state.once.Do(load)

	state.RLock()
	defer state.RUnlock()
	if res, ok := state.translations[key][strings.ToUpper(lang)]; ok && res != "" {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}
