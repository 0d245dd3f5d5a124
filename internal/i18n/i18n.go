// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides localized strings and the reactive current language.
package i18n

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Catalog maps message keys to templates with {param} placeholders.
type Catalog map[string]string

// Localizer looks up strings in the current language and notifies
// subscribers when the language changes.
type Localizer struct {
	mu       sync.RWMutex
	catalogs map[language.Tag]Catalog
	fallback language.Tag
	matcher  language.Matcher
	tags     []language.Tag
	current  language.Tag
	subs     map[int]func(language.Tag)
	nextSub  int
}

// New creates a localizer with the built-in catalogs, starting in lang.
func New(lang string) *Localizer {
	l := NewWithCatalogs(language.English, map[language.Tag]Catalog{
		language.English: English,
		language.Hindi:   Hindi,
	})
	l.SetLanguage(lang)
	return l
}

// NewWithCatalogs creates a localizer over custom catalogs.
// fallback must be one of the catalog tags.
func NewWithCatalogs(fallback language.Tag, catalogs map[language.Tag]Catalog) *Localizer {
	tags := []language.Tag{fallback}
	for t := range catalogs {
		if t != fallback {
			tags = append(tags, t)
		}
	}
	// keep matcher order stable after the fallback
	sort.Slice(tags[1:], func(i, j int) bool { return tags[1+i].String() < tags[1+j].String() })

	return &Localizer{
		catalogs: catalogs,
		fallback: fallback,
		matcher:  language.NewMatcher(tags),
		tags:     tags,
		current:  fallback,
		subs:     make(map[int]func(language.Tag)),
	}
}

// Language returns the current language tag.
func (l *Localizer) Language() language.Tag {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Code returns the current language as a BCP 47 string ("en", "hi").
func (l *Localizer) Code() string {
	return l.Language().String()
}

// Supported returns the available language tags, fallback first.
func (l *Localizer) Supported() []language.Tag {
	out := make([]language.Tag, len(l.tags))
	copy(out, l.tags)
	return out
}

// Match resolves an arbitrary language string to a supported tag.
func (l *Localizer) Match(lang string) language.Tag {
	desired, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(desired) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(desired...)
	if conf == language.No {
		return l.fallback
	}
	return l.tags[idx]
}

// SetLanguage switches the current language. Subscribers are notified only
// when the effective language changes. Returns the resolved tag.
func (l *Localizer) SetLanguage(lang string) language.Tag {
	tag := l.Match(lang)

	l.mu.Lock()
	if tag == l.current {
		l.mu.Unlock()
		return tag
	}
	l.current = tag
	subs := make([]func(language.Tag), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(tag)
	}
	return tag
}

// Subscribe registers fn for language changes and returns a cancel func.
func (l *Localizer) Subscribe(fn func(language.Tag)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// T returns the template for key in the current language with params
// substituted. Missing keys fall back to the fallback catalog, then to
// the key itself.
func (l *Localizer) T(key string, params map[string]string) string {
	l.mu.RLock()
	tmpl, ok := l.catalogs[l.current][key]
	if !ok {
		tmpl, ok = l.catalogs[l.fallback][key]
	}
	l.mu.RUnlock()

	if !ok {
		return key
	}
	return Render(tmpl, params)
}

// Render substitutes {name} placeholders in tmpl.
func Render(tmpl string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
