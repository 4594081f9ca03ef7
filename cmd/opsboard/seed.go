package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"opsboard/internal/auth"
	"opsboard/internal/config"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

type seedFile struct {
	Users []seedUser `yaml:"users"`
	Tasks []seedTask `yaml:"tasks"`
}

type seedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Agency   string `yaml:"agency"`
}

type seedTask struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Creator     string `yaml:"creator"`
	Assignee    string `yaml:"assignee"`
	Agency      string `yaml:"agency"`
	Priority    string `yaml:"priority"`
	DueAt       string `yaml:"due_at"`
}

// newSeedCmd loads users and tasks from a YAML file. Existing usernames
// are skipped so the command can run repeatedly against the same
// database.
func newSeedCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load users and tasks from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			now := time.Now().UTC()

			usersByName := map[string]*models.User{}
			usersCreated := 0
			for _, su := range seed.Users {
				user, created, err := seedOneUser(ctx, st, su, now)
				if err != nil {
					return fmt.Errorf("seed user %q: %w", su.Username, err)
				}
				usersByName[user.Username] = user
				if created {
					usersCreated++
				}
			}

			tasksCreated := 0
			for i, tk := range seed.Tasks {
				if err := seedOneTask(ctx, st, tk, usersByName, now); err != nil {
					return fmt.Errorf("seed task %d (%q): %w", i, tk.Title, err)
				}
				tasksCreated++
			}

			if *jsonOutput {
				return writeJSON(map[string]int{"users_created": usersCreated, "tasks_created": tasksCreated})
			}
			fmt.Printf("Seeded %d users and %d tasks\n", usersCreated, tasksCreated)
			return nil
		},
	}

	return cmd
}

func seedOneUser(ctx context.Context, st *store.Store, su seedUser, now time.Time) (*models.User, bool, error) {
	username, err := auth.NormalizeUsername(su.Username)
	if err != nil {
		return nil, false, err
	}

	existing, err := st.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	role, err := models.ParseRole(su.Role)
	if err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(su.Password)
	if err != nil {
		return nil, false, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  strings.TrimSpace(su.Name),
		Email:        strings.TrimSpace(su.Email),
		Role:         role,
		Agency:       strings.TrimSpace(su.Agency),
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func seedOneTask(ctx context.Context, st *store.Store, tk seedTask, usersByName map[string]*models.User, now time.Time) error {
	title := strings.TrimSpace(tk.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}

	creator, ok := usersByName[strings.ToLower(strings.TrimSpace(tk.Creator))]
	if !ok {
		return fmt.Errorf("creator %q is not in the seed file", tk.Creator)
	}

	assigneeID := ""
	status := models.StatusDraft
	if strings.TrimSpace(tk.Assignee) != "" {
		assignee, ok := usersByName[strings.ToLower(strings.TrimSpace(tk.Assignee))]
		if !ok {
			return fmt.Errorf("assignee %q is not in the seed file", tk.Assignee)
		}
		assigneeID = assignee.ID
		status = models.StatusAssigned
	}

	priority := models.DefaultPriority
	if strings.TrimSpace(tk.Priority) != "" {
		parsed, err := models.ParsePriority(tk.Priority)
		if err != nil {
			return err
		}
		priority = parsed
	}

	var dueAt *time.Time
	if strings.TrimSpace(tk.DueAt) != "" {
		due, err := time.Parse("2006-01-02", strings.TrimSpace(tk.DueAt))
		if err != nil {
			due, err = time.Parse(time.RFC3339, strings.TrimSpace(tk.DueAt))
			if err != nil {
				return fmt.Errorf("invalid due_at %q", tk.DueAt)
			}
		}
		due = due.UTC()
		dueAt = &due
	}

	agency := strings.TrimSpace(tk.Agency)
	if agency == "" {
		agency = creator.Agency
	}

	return st.CreateTask(ctx, &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(tk.Description),
		AssigneeID:  assigneeID,
		CreatorID:   creator.ID,
		Agency:      agency,
		Priority:    priority,
		Status:      status,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}
