package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/tutor/internal/api"
	"github.com/kalambet/tutor/internal/config"
	"github.com/kalambet/tutor/internal/learning"
	"github.com/kalambet/tutor/internal/preferences"
	"github.com/kalambet/tutor/internal/proxy"
	"github.com/kalambet/tutor/internal/session"
	"github.com/kalambet/tutor/internal/tutor"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	Long: `Start an interactive tutoring session against the running server.

Type a message and press enter. Blank lines are ignored; "exit" or "quit"
ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		keep, _ := cmd.Flags().GetBool("keep")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), client, sessionID, keep, os.Stdin, os.Stdout)
	},
}

func init() {
	chatCmd.Flags().String("session", "", "resume an existing session instead of creating one")
	chatCmd.Flags().Bool("keep", false, "keep the session on the server after exiting")
}

func runChat(ctx context.Context, client *apiClient, sessionID string, keep bool, in io.Reader, out io.Writer) error {
	if sessionID == "" {
		created, err := createSession(ctx, client)
		if err != nil {
			return err
		}
		sessionID = created.ID
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "tutor:"), created.Greeting)
		if !keep {
			defer deleteSession(ctx, client, sessionID)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, colorize(colorCyan, "you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		reply, err := sendMessage(ctx, client, sessionID, line)
		switch {
		case err == nil:
			printReply(out, reply)
		case isNotFound(err) || ctx.Err() != nil:
			return err
		default:
			// A busy session or a slow completion only loses this turn.
			printError("%v", err)
		}
	}
}

func createSession(ctx context.Context, client *apiClient) (api.CreateSessionResponse, error) {
	resp, err := client.post(ctx, "/sessions", nil)
	if err != nil {
		return api.CreateSessionResponse{}, err
	}
	var created api.CreateSessionResponse
	if err := decodeJSON(resp, &created); err != nil {
		return api.CreateSessionResponse{}, fmt.Errorf("creating session: %w", err)
	}
	return created, nil
}

// deleteSession removes a session the CLI created. It runs on exit, so it
// ignores cancellation of ctx and any error.
func deleteSession(ctx context.Context, client *apiClient, sessionID string) {
	resp, err := client.delete(context.WithoutCancel(ctx), "/sessions/"+url.PathEscape(sessionID))
	if err == nil {
		resp.Body.Close()
	}
}

func sendMessage(ctx context.Context, client *apiClient, sessionID, content string) (tutor.Reply, error) {
	resp, err := client.post(ctx, "/sessions/"+url.PathEscape(sessionID)+"/messages", api.MessageRequest{Content: content})
	if err != nil {
		return tutor.Reply{}, err
	}
	var reply tutor.Reply
	if err := decodeJSON(resp, &reply); err != nil {
		return tutor.Reply{}, err
	}
	return reply, nil
}

func printReply(out io.Writer, reply tutor.Reply) {
	fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "tutor:"), reply.Content)
	if reply.Failed {
		fmt.Fprintln(out, colorize(colorRed, "  (completion failed)"))
	}
	if len(reply.AdaptationsApplied) > 0 {
		fmt.Fprintln(out, colorize(colorYellow, "  adapted: "+strings.Join(reply.AdaptationsApplied, ", ")))
	}
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send a single message and print the adapted reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		message := strings.TrimSpace(strings.Join(args, " "))
		if message == "" {
			return fmt.Errorf("message is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if sessionID == "" {
			created, err := createSession(ctx, client)
			if err != nil {
				return err
			}
			sessionID = created.ID
			defer deleteSession(ctx, client, sessionID)
		}

		reply, err := sendMessage(ctx, client, sessionID, message)
		if err != nil {
			return err
		}
		printReply(os.Stdout, reply)
		return nil
	},
}

func init() {
	askCmd.Flags().String("session", "", "send the message to an existing session")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile <session-id>",
	Short: "Show the learning profile inferred for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("unsupported format %q: use json or yaml", format)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/sessions/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var view session.View
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}

		return renderProfile(os.Stdout, view.Profile, format)
	},
}

func init() {
	profileCmd.Flags().String("format", "json", "output format: json or yaml")
}

// renderProfile writes p as indented JSON or as YAML with the same field names.
func renderProfile(w io.Writer, p learning.Profile, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fields); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// --- prefs ---

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage stored learning preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show stored preferences for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		p, err := getPreferences(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <user-id>",
	Short: "Update stored preferences for a user",
	Long: `Update stored preferences for a user. Only the flags given are changed.

Examples:
  tutor prefs set alice --subjects "Mathematics,Computer Science"
  tutor prefs set alice --style visual --difficulty beginner`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("subjects") && !flags.Changed("style") && !flags.Changed("difficulty") {
			return fmt.Errorf("one of --subjects, --style, or --difficulty is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		current, err := getPreferences(ctx, client, args[0])
		if err != nil && !isNotFound(err) {
			return err
		}

		if flags.Changed("subjects") {
			raw, _ := flags.GetString("subjects")
			current.Subjects = splitList(raw)
		}
		if flags.Changed("style") {
			current.LearningStyle, _ = flags.GetString("style")
		}
		if flags.Changed("difficulty") {
			current.DifficultyLevel, _ = flags.GetString("difficulty")
		}

		saved, err := putPreferences(ctx, client, args[0], current)
		if err != nil {
			return err
		}
		printSuccess("Saved preferences for %s (updated %s)", args[0], saved.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var prefsDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete stored preferences for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/users/"+url.PathEscape(args[0])+"/preferences")
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Deleted preferences for %s", args[0])
		return nil
	},
}

func init() {
	prefsSetCmd.Flags().String("subjects", "", "comma-separated subjects (Mathematics, Physics, Chemistry, Biology, History, Literature, Computer Science, Economics, Psychology, Languages)")
	prefsSetCmd.Flags().String("style", "", "learning style: visual, auditory, reading, kinesthetic")
	prefsSetCmd.Flags().String("difficulty", "", "difficulty: beginner, intermediate, advanced")
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsDeleteCmd)
}

func getPreferences(ctx context.Context, client *apiClient, userID string) (preferences.Preferences, error) {
	resp, err := client.get(ctx, "/users/"+url.PathEscape(userID)+"/preferences")
	if err != nil {
		return preferences.Preferences{}, err
	}
	var p preferences.Preferences
	if err := decodeJSON(resp, &p); err != nil {
		return preferences.Preferences{}, err
	}
	return p, nil
}

func putPreferences(ctx context.Context, client *apiClient, userID string, p preferences.Preferences) (preferences.Preferences, error) {
	resp, err := client.put(ctx, "/users/"+url.PathEscape(userID)+"/preferences", p)
	if err != nil {
		return preferences.Preferences{}, err
	}
	var saved preferences.Preferences
	if err := decodeJSON(resp, &saved); err != nil {
		return preferences.Preferences{}, err
	}
	return saved, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by the completion service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/models")
		if err != nil {
			return err
		}
		var list proxy.ModelList
		if err := decodeJSON(resp, &list); err != nil {
			return err
		}

		if len(list.Data) == 0 {
			fmt.Println("No models available.")
			return nil
		}
		for _, m := range list.Data {
			fmt.Printf("%s  %s\n", colorize(colorCyan, m.ID), m.OwnedBy)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the completion API key in the platform secret store",
	Long: `Store the completion API key in the platform secret store.

With no argument the key is read from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			printStep("Paste the API key and press enter")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("reading API key: %w", err)
			}
			key = line
		}

		if err := config.SetAPIKey(key); err != nil {
			return err
		}
		printSuccess("API key stored")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
}
