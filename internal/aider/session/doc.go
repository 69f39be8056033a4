// Package session drives one interactive aider process.
//
// A Session owns at most one live process at a time. Start resolves and
// spawns aider, then blocks until its first prompt appears. SendMessage
// writes one user message, and StreamTurn returns a Turn whose Deltas
// sequence yields the reply as it arrives and ends at the next prompt.
//
// Every spawned process is tagged with a generation number. Output and
// exit reports from a process the Session has already killed or replaced
// are dropped, so an intentional kill during ResetSession never shows up
// as a crash.
//
// Basic usage:
//
//	s := session.New(session.WithDir(repo), session.WithLogger(logger))
//	if err := s.Start(ctx, "gpt-4o", apiKey); err != nil {
//		return err
//	}
//	defer s.Kill()
//
//	turn, err := s.Chat(ctx, "add a --verbose flag")
//	if err != nil {
//		return err
//	}
//	for delta := range turn.Deltas() {
//		fmt.Print(detect.UnescapeDelta(delta))
//	}
package session
