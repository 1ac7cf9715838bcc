package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MarcoPoloResearchLab/modulux/internal/apiclient"
	"github.com/MarcoPoloResearchLab/modulux/internal/config"
	"github.com/MarcoPoloResearchLab/modulux/internal/editor"
	"github.com/MarcoPoloResearchLab/modulux/internal/logging"
	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/spf13/viper"
)

func newAPIClient() (*apiclient.Client, config.AppConfig, error) {
	appConfig, err := config.LoadClient(viper.GetViper())
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	if strings.TrimSpace(appConfig.APIToken) == "" {
		return nil, config.AppConfig{}, fmt.Errorf("api.token is required (mint one with `modulux-api session mint`)")
	}
	client, err := apiclient.New(apiclient.Config{BaseURL: appConfig.APIBaseURL, Token: appConfig.APIToken})
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	return client, appConfig, nil
}

// withEditor opens an editing session on portfolioID, runs gesture, and waits for the
// resulting save. A gesture that changes nothing is reported as an error.
func withEditor(ctx context.Context, portfolioID string, out io.Writer, gesture func(*editor.Session) (bool, error)) error {
	client, appConfig, err := newAPIClient()
	if err != nil {
		return err
	}
	logger, err := logging.NewConsoleLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	session, err := editor.Open(ctx, editor.Config{
		Backend:        client,
		PortfolioID:    portfolioID,
		PersistTimeout: appConfig.PersistTimeout,
		Logger:         logger,
	})
	if session != nil {
		defer session.Close()
	}
	if err != nil {
		return err
	}

	switch session.State() {
	case editor.StateNotFound:
		return fmt.Errorf("portfolio %s not found", portfolioID)
	case editor.StateReady:
	default:
		return fmt.Errorf("%w: portfolio %s is %s", editor.ErrNotReady, portfolioID, session.State())
	}

	if gesture != nil {
		applied, err := gesture(session)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("nothing changed")
		}
		if err := session.Wait(ctx); err != nil {
			return err
		}
		if session.State() != editor.StateReady {
			return fmt.Errorf("save did not apply: %w", session.Err())
		}
		if err := session.Err(); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
	}
	return printSections(out, session.Name(), session.Version(), session.Sections())
}

func printSections(out io.Writer, name string, version int64, collection []sections.Section) error {
	fmt.Fprintf(out, "%s (version %d)\n", name, version)
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ORDER\tID\tTYPE\tVISIBLE")
	for _, section := range collection {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%t\n", section.Order, section.ID, section.Type, section.IsVisible)
	}
	return writer.Flush()
}

func printPortfolios(out io.Writer, list []portfolios.Portfolio) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tSLUG\tSTATUS\tVERSION\tSECTIONS")
	for _, portfolio := range list {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%d\n",
			portfolio.ID, portfolio.Name, portfolio.Slug, portfolio.Status, portfolio.Version, len(portfolio.Sections))
	}
	return writer.Flush()
}

// parseAssignments turns field=value arguments into a section data patch. Values
// that parse as JSON keep their type; anything else is taken as a string.
func parseAssignments(assignments []string) (sections.Patch, error) {
	patch := sections.Patch{}
	for _, assignment := range assignments {
		field, value, found := strings.Cut(assignment, "=")
		field = strings.TrimSpace(field)
		if !found || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", assignment)
		}
		raw := json.RawMessage(value)
		if !json.Valid(raw) {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			raw = encoded
		}
		patch[field] = raw
	}
	return patch, nil
}
