package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/tokenbid-backend/internal/logger"
	"github.com/ignatzorin/tokenbid-backend/internal/models"
)

// SeedPassword пароль всех сгенерированных пользователей.
const SeedPassword = "Password123"

// SeedService генерирует демонстрационные данные через обычные сервисы,
// поэтому все балансы и журнал остаются согласованными.
type SeedService struct {
	auth     *AuthService
	projects *ProjectService
	bids     *BidService
	rnd      *rand.Rand
}

// NewSeedService создаёт новый сервис для генерации данных.
func NewSeedService(auth *AuthService, projects *ProjectService, bids *BidService, seed int64) *SeedService {
	return &SeedService{
		auth:     auth,
		projects: projects,
		bids:     bids,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

// SeedResult сводка сгенерированных данных.
type SeedResult struct {
	Clients     int `json:"clients"`
	Freelancers int `json:"freelancers"`
	Projects    int `json:"projects"`
	Bids        int `json:"bids"`
}

// SeedData создаёт заказчиков, исполнителей, проекты и ставки на них.
func (s *SeedService) SeedData(ctx context.Context, numUsers, numProjects int) (*SeedResult, error) {
	if numUsers < 2 {
		return nil, fmt.Errorf("seed service: нужно минимум 2 пользователя")
	}

	var clients, freelancers []uuid.UUID
	for i := 0; i < numUsers; i++ {
		// 1/3 заказчиков, 2/3 исполнителей
		role := models.RoleFreelancer
		if i%3 == 0 {
			role = models.RoleClient
		}

		res, err := s.auth.Register(ctx, RegisterInput{
			Name:     s.randomName(),
			Email:    fmt.Sprintf("seed.%s@example.com", uuid.NewString()[:8]),
			Password: SeedPassword,
			Roles:    []string{role},
		}, SessionMeta{UserAgent: "seed"})
		if err != nil {
			return nil, fmt.Errorf("seed service: failed to create user: %w", err)
		}

		if role == models.RoleClient {
			clients = append(clients, res.User.ID)
		} else {
			freelancers = append(freelancers, res.User.ID)
		}
	}

	result := &SeedResult{Clients: len(clients), Freelancers: len(freelancers)}

	for i := 0; i < numProjects; i++ {
		idx := s.rnd.Intn(len(seedProjects))
		budgetMin := float64(s.rnd.Intn(50)+5) * 1000
		project, err := s.projects.CreateProject(ctx, clients[s.rnd.Intn(len(clients))], CreateProjectInput{
			Title:       seedProjects[idx].title,
			Description: seedProjects[idx].description,
			BudgetMin:   budgetMin,
			BudgetMax:   budgetMin * 2,
		})
		if err != nil {
			return nil, fmt.Errorf("seed service: failed to create project: %w", err)
		}
		result.Projects++

		// каждый исполнитель ставит с вероятностью 1/2, баланса хватает на 10 ставок
		for _, freelancerID := range freelancers {
			if s.rnd.Intn(2) == 0 {
				continue
			}
			days := s.rnd.Intn(30) + 1
			_, err := s.bids.CreateBid(ctx, project.ID, freelancerID, CreateBidInput{
				Proposal:      seedProposals[s.rnd.Intn(len(seedProposals))],
				BidAmount:     budgetMin + float64(s.rnd.Intn(int(budgetMin))),
				EstimatedDays: &days,
			})
			if err != nil {
				logger.Log.WithFields(logrus.Fields{
					"project_id":    project.ID,
					"freelancer_id": freelancerID,
					"error":         err.Error(),
				}).Debug("seed: ставка пропущена")
				continue
			}
			result.Bids++
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"clients":     result.Clients,
		"freelancers": result.Freelancers,
		"projects":    result.Projects,
		"bids":        result.Bids,
	}).Info("seed data generated")

	return result, nil
}

func (s *SeedService) randomName() string {
	first := seedFirstNames[s.rnd.Intn(len(seedFirstNames))]
	last := seedLastNames[s.rnd.Intn(len(seedLastNames))]
	return strings.TrimSpace(first + " " + last)
}

var seedFirstNames = []string{
	"Александр", "Дмитрий", "Максим", "Сергей", "Андрей", "Алексей", "Артём", "Илья",
	"Анна", "Мария", "Елена", "Ольга", "Татьяна", "Наталья", "Ирина", "Светлана",
}

var seedLastNames = []string{
	"Иванов", "Петров", "Смирнов", "Козлов", "Соколов", "Попов", "Лебедев", "Новиков",
	"Морозов", "Волков", "Соловьёв", "Васильев", "Зайцев", "Павлов", "Семёнов", "Голубев",
}

var seedProjects = []struct {
	title       string
	description string
}{
	{"Разработка веб-сайта для интернет-магазина", "Требуется разработка современного веб-сайта с адаптивным дизайном. Необходимо реализовать каталог товаров, корзину и личный кабинет пользователя."},
	{"Создание мобильного приложения для доставки еды", "Нужно создать мобильное приложение для iOS и Android. Приложение должно включать авторизацию, карту с геолокацией и систему уведомлений."},
	{"Дизайн логотипа и фирменного стиля", "Требуется разработать фирменный стиль компании: логотип, цветовая палитра, типографика."},
	{"Настройка и оптимизация базы данных", "Необходимо оптимизировать существующую базу данных PostgreSQL, улучшить производительность запросов и настроить репликацию."},
	{"Разработка REST API для мобильного приложения", "Требуется разработать REST API с авторизацией, работой с пользователями, заказами и уведомлениями."},
	{"Создание landing page для стартапа", "Нужно создать одностраничный сайт для продвижения нового продукта с формой обратной связи."},
	{"Создание чат-бота для поддержки клиентов", "Бот должен отвечать на частые вопросы и переключать на живого оператора при необходимости."},
	{"Настройка CI/CD pipeline", "Требуется настроить автоматическую сборку, тестирование и развертывание приложения."},
}

var seedProposals = []string{
	"Здравствуйте! Имею большой опыт в подобных проектах, готов приступить сразу.",
	"Добрый день. Выполню задачу в срок, покажу промежуточный результат через неделю.",
	"Готов взяться за проект. Есть вопросы по требованиям, обсудим после разблокировки.",
	"Делал похожие проекты, примеры работ пришлю в переписке.",
}
