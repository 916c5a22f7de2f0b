/*
Package adwizard drives a chat-style ad creative wizard.

A session moves through template selection, input collection, generation and
result (with an error state for failed runs). Users answer in free text; the
matcher in pkg/matcher maps replies to the options of the active question, and
pkg/flow applies the resulting transition.

# Usage

	w, err := adwizard.New(
		adwizard.WithGenerator(generator.NewHTTPFromEnv(time.Minute)),
		adwizard.WithLogger(logging.New(slog.LevelInfo)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	ctx := context.Background()
	turn, _ := w.Create(ctx, "")
	turn, _ = w.Reply(ctx, turn.Session.ID, "avatar video")
	fmt.Println(turn.Prompt.Message)

Generation runs in the background once every required input is collected. Each
run is bounded by WithGenerationTimeout; a timeout or upstream failure moves the
session to the error state, from which the user may retry or start over.

# Adapters

Sessions persist through ports.SessionStore (memory, file, redis). Template
catalogs come from the built-in set, a YAML file or a loam directory. The HTTP
adapter exposes the wizard as a REST + SSE API and the MCP adapter exposes the
matcher and sessions as tools.
*/
package adwizard
