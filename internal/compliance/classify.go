// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package compliance

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// PATTERN TABLE
// ============================================================================

// Rule pairs a keyword pattern with the category it selects.
type Rule struct {
	Category TaskCategory
	Pattern  *regexp.Regexp
}

// defaultRules is evaluated top to bottom; the first match wins.
// DO NOT REORDER without updating the precedence tests: a task that mentions
// both code and research terms must resolve to code.
var defaultRules = []Rule{
	{CategoryCode, regexp.MustCompile(`(?i)\b(code|coding|function|functions|method|class|implement\w*|refactor\w*|bug|bugs|debug\w*|fix|compile\w*|syntax|variable|algorithm|script)\b`)},
	{CategoryData, regexp.MustCompile(`(?i)\b(data|dataset\w*|database\w*|sql|query|queries|schema|etl|csv|json|migration\w*)\b`)},
	{CategoryTest, regexp.MustCompile(`(?i)\b(test|tests|testing|unit|spec|specs|coverage|assert\w*|mock\w*|qa)\b`)},
	{CategoryDeploy, regexp.MustCompile(`(?i)\b(deploy\w*|release|rollout|pipeline|kubernetes|k8s|docker\w*|helm|terraform|infrastructure|provision\w*|ci)\b`)},
	{CategoryDesign, regexp.MustCompile(`(?i)\b(design\w*|ui|ux|layout|mockup\w*|wireframe\w*|architect\w*|diagram\w*|theme\w*|styling)\b`)},
	{CategoryDocument, regexp.MustCompile(`(?i)\b(document\w*|docs?|readme|comment\w*|explain\w*|tutorial\w*|guide|changelog|summar\w*)\b`)},
	{CategoryResearch, regexp.MustCompile(`(?i)\b(research\w*|investigat\w*|compare|comparison|analy[sz]\w*|survey|evaluat\w*|benchmark\w*|study|explore)\b`)},
}

// Classifier maps task text to a TaskCategory using an ordered rule table.
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules, evaluated in order.
func NewClassifier(rules []Rule) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied}
}

// DefaultClassifier returns a classifier over the built-in pattern table.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

var defaultClassifier = NewClassifier(defaultRules)

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the category of the first rule whose pattern matches task,
// or CategoryGeneral when nothing matches.
func (c *Classifier) Classify(task string) TaskCategory {
	cat, _ := c.Match(task)
	return cat
}

// Match is Classify plus the index of the matching rule (-1 for the general
// fallback).
func (c *Classifier) Match(task string) (TaskCategory, int) {
	text := normalizeTask(task)
	if text == "" {
		return CategoryGeneral, -1
	}
	for i, rule := range c.rules {
		if rule.Pattern.MatchString(text) {
			return rule.Category, i
		}
	}
	return CategoryGeneral, -1
}

// Classify classifies task with the built-in pattern table.
func Classify(task string) TaskCategory {
	return defaultClassifier.Classify(task)
}

// normalizeTask folds compatibility characters (full-width letters,
// ligatures) so they match the ASCII keyword patterns.
func normalizeTask(task string) string {
	return strings.TrimSpace(norm.NFKC.String(task))
}
