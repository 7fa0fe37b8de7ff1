package validation

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Константы валидации
const (
	MinNameLength               = 2
	MaxNameLength               = 100
	MaxProjectTitleLength       = 150
	MinProjectDescriptionLength = 10
	MaxProjectDescriptionLength = 10000
	MaxProposalLength           = 5000
	MinMessageLength            = 1
	MaxMessageLength            = 5000
	MaxReviewCommentLength      = 2000
	MaxReviewTags               = 10
	MaxTagLength                = 50
	MaxBudget                   = 100000000.0 // 100 миллионов
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)

	// strictPolicy вырезает любую разметку, оставляя только текст.
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeText удаляет HTML из пользовательского текста и обрезает пробелы.
// Сущности, которые bluemonday экранирует, возвращаются к исходным символам:
// хранится текст, а не HTML.
func SanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(value)))
}

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateName проверяет имя пользователя.
func ValidateName(name string) error {
	return ValidateLength("имя", strings.TrimSpace(name), MinNameLength, MaxNameLength)
}

// ValidateProjectTitle проверяет заголовок проекта.
func ValidateProjectTitle(title string) error {
	if err := ValidateNonEmpty("заголовок", title); err != nil {
		return err
	}
	return ValidateLength("заголовок", title, 1, MaxProjectTitleLength)
}

// ValidateProjectDescription проверяет описание проекта.
func ValidateProjectDescription(description string) error {
	return ValidateLength("описание", description, MinProjectDescriptionLength, MaxProjectDescriptionLength)
}

// ValidateBudget проверяет бюджет проекта.
func ValidateBudget(budgetMin, budgetMax float64) error {
	if budgetMin < 0 || budgetMax < 0 {
		return fmt.Errorf("бюджет не может быть отрицательным")
	}
	if budgetMin > MaxBudget || budgetMax > MaxBudget {
		return fmt.Errorf("бюджет не может превышать %.0f", MaxBudget)
	}
	if budgetMax > 0 && budgetMin > budgetMax {
		return fmt.Errorf("минимальный бюджет не может быть больше максимального")
	}
	return nil
}

// ValidateProposal проверяет текст предложения к ставке.
func ValidateProposal(proposal string) error {
	return ValidateLength("текст предложения", proposal, 1, MaxProposalLength)
}

// ValidateMessageContent проверяет текст сообщения.
func ValidateMessageContent(content string) error {
	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

// ValidateReviewComment проверяет комментарий к отзыву.
func ValidateReviewComment(comment string) error {
	return ValidateLength("комментарий", comment, 0, MaxReviewCommentLength)
}

// NormalizeTags очищает теги отзыва, убирает пустые и повторы.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = SanitizeText(tag)
		if tag == "" {
			continue
		}
		if err := ValidateLength("тег", tag, 1, MaxTagLength); err != nil {
			return nil, err
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxReviewTags {
		return nil, fmt.Errorf("не более %d тегов", MaxReviewTags)
	}
	return out, nil
}
