// voicelog is the operator CLI: admin promotion, tag curation, and platform
// stats, run directly against the database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/voicelog/backend/internal/auth"
	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/database"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/storage"
)

var (
	authService *auth.Service
	postService *posts.Service
)

var rootCmd = &cobra.Command{
	Use:   "voicelog",
	Short: "Voicelog operator CLI",
	Long:  "Operator tooling for the voicelog backend: promote admins, curate tags, inspect platform stats.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}

		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		store, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to open upload dir: %v", err)
		}

		authService = auth.NewService(database.DB, cfg.JWTSecret, cfg.SignupCode)
		postService = posts.NewService(database.DB, store)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
	},
}

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <username>",
	Short: "Grant admin rights to a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := authService.PromoteAdmin(context.Background(), args[0]); err != nil {
			log.Fatalf("Failed to promote %s: %v", args[0], err)
		}
		fmt.Printf("%s is now an admin\n", args[0])
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage the global tag vocabulary",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags",
	Run: func(cmd *cobra.Command, args []string) {
		tags, err := postService.ListTags(context.Background())
		if err != nil {
			log.Fatalf("Failed to list tags: %v", err)
		}
		for _, t := range tags {
			fmt.Printf("%d\t%s\t%s\n", t.ID, t.Name, t.Description)
		}
	},
}

var tagDescription string

var tagCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tag, err := postService.CreateTag(context.Background(), args[0], tagDescription)
		if err != nil {
			log.Fatalf("Failed to create tag: %v", err)
		}
		fmt.Printf("Created tag %q (id %d)\n", tag.Name, tag.ID)
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tag and detach it from all posts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var id uint
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			log.Fatalf("Invalid tag id %q", args[0])
		}
		if err := postService.DeleteTag(context.Background(), id); err != nil {
			log.Fatalf("Failed to delete tag: %v", err)
		}
		fmt.Println("Tag deleted")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print platform-wide totals",
	Run: func(cmd *cobra.Command, args []string) {
		stats, err := postService.PlatformStats(context.Background())
		if err != nil {
			log.Fatalf("Failed to compute stats: %v", err)
		}
		fmt.Printf("Posts:        %d (%d public)\n", stats.TotalPosts, stats.PublicPosts)
		fmt.Printf("Users:        %d\n", stats.TotalUsers)
		fmt.Printf("Tags:         %d\n", stats.TotalTags)
		fmt.Printf("Total views:  %d\n", stats.TotalViews)
		fmt.Printf("Total plays:  %d\n", stats.TotalPlays)
	},
}

func init() {
	tagCreateCmd.Flags().StringVar(&tagDescription, "description", "", "Tag description")
	tagCmd.AddCommand(tagListCmd, tagCreateCmd, tagDeleteCmd)
	rootCmd.AddCommand(promoteAdminCmd, tagCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
