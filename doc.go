/*
Package chatflow executes published conversational flows: directed graphs
of message bubbles, user inputs, logic branches and third-party
integrations, walked one input at a time against a serializable session
state.

A flow snapshot is immutable once published. The engine walks it block by
block, emitting messages until it reaches an input block, then pauses and
waits for the user's reply. All conversation state lives in the session,
so the engine itself is stateless and any replica can resume any
conversation.

# Usage

	bot := chatflow.New()
	if err := bot.LoadFlowsDir("./flows"); err != nil {
		log.Fatal(err)
	}

	reply, err := bot.StartChat(ctx, "onboarding")
	if err != nil {
		log.Fatal(err)
	}
	for _, msg := range reply.Messages {
		fmt.Println(msg.Content.Text)
	}

	// Later, when the user answers:
	reply, err = bot.SendMessage(ctx, reply.SessionID, "Ada")

For multi-replica deployments, wire the redis adapters:

	store := redis.New("localhost:6379", "", 0, redis.WithTTL(24*time.Hour))
	locker := redis.NewLocker(store.Client())
	bot := chatflow.New(
		chatflow.WithSessionStore(store),
		chatflow.WithLocker(locker),
	)

The pkg/engine, pkg/session and pkg/flow packages are usable on their own
for hosts that need finer control than the Bot facade offers.
*/
package chatflow
