package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/farkle/internal/game/ai"
	"github.com/cory-johannsen/farkle/internal/game/catalog"
	"github.com/cory-johannsen/farkle/internal/game/economy"
	"github.com/cory-johannsen/farkle/internal/game/match"
	"github.com/cory-johannsen/farkle/internal/game/session"
)

// ErrUnknownCommand is returned for input that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// errQuit ends the command loop.
var errQuit = errors.New("quit")

type handler func(ctx context.Context, c *Console, args []string) error

type commandDef struct {
	name    string
	aliases []string
	usage   string
	help    string
	fn      handler
}

// Console runs the command loop for one session and renders its output.
// Output from the loop and from computer turns is serialized.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger
	sess   *session.Session
	cmds   []commandDef
	index  map[string]*commandDef
}

// New creates a Console writing to out. Attach must be called before Run.
//
// Precondition: out and logger must be non-nil.
func New(out io.Writer, logger *zap.Logger) *Console {
	if out == nil || logger == nil {
		panic("console.New: out and logger must not be nil")
	}
	c := &Console{out: out, logger: logger}
	c.cmds = builtinCommands()
	c.index = make(map[string]*commandDef)
	for i := range c.cmds {
		def := &c.cmds[i]
		c.index[def.name] = def
		for _, a := range def.aliases {
			c.index[a] = def
		}
	}
	return c
}

// Attach binds the session the console drives.
func (c *Console) Attach(sess *session.Session) {
	c.sess = sess
}

// Update renders a match snapshot produced by the computer. It is the
// session's OnUpdate callback.
func (c *Console) Update(st match.State) {
	c.print(RenderMatch(st))
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.out, s); err != nil {
		c.logger.Debug("console write failed", zap.Error(err))
	}
}

func (c *Console) printf(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...))
}

// Run reads commands from in until quit, end of input or ctx is done.
//
// Precondition: Attach has been called with an opened session.
// Postcondition: any running match is left as is; the caller closes the
// session.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	if c.sess == nil {
		panic("console.Run: no session attached")
	}
	c.print(Colorize(BrightYellow, "Welcome to the tavern. Type help for commands.") + "\n")
	if p, err := c.sess.Profile(); err == nil {
		c.print(RenderProfile(p))
	}

	scanner := bufio.NewScanner(in)
	for {
		c.print(c.prompt())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.Execute(ctx, scanner.Text())
		switch {
		case errors.Is(err, errQuit):
			c.print("Farewell.\n")
			return nil
		case err != nil:
			c.print(Colorize(Red, err.Error()) + "\n")
		}
	}
}

// Execute runs one input line.
func (c *Console) Execute(ctx context.Context, line string) error {
	parsed := Parse(line)
	if parsed.Command == "" {
		return nil
	}
	def, ok := c.index[parsed.Command]
	if !ok {
		return fmt.Errorf("%q: %w (try help)", parsed.Command, ErrUnknownCommand)
	}
	c.logger.Debug("command",
		zap.String("command", def.name),
		zap.Strings("args", parsed.Args),
	)
	return def.fn(ctx, c, parsed.Args)
}

func (c *Console) prompt() string {
	if st, running := c.sess.State(); running {
		return Colorf(BrightCyan, "[%s] > ", st.Phase)
	}
	return Colorize(BrightCyan, "> ")
}

// act applies a human action, then waits out any computer turn it started
// and reports the outcome.
func (c *Console) act(ctx context.Context, a match.Action) error {
	st, err := c.sess.Act(ctx, a)
	if err != nil {
		return err
	}
	if st.Over() {
		c.print(RenderMatch(st))
		c.printResult()
		return nil
	}
	if st.Active == session.HumanSeat {
		c.print(RenderMatch(st))
		return nil
	}

	if ended, ok := c.sess.LastTurn(); ok {
		c.print(RenderMatch(ended))
	}
	c.print(Colorf(Dim, "%s is thinking...", st.ActivePlayer().Name) + "\n")
	if err := c.sess.Wait(ctx); err != nil {
		return err
	}
	if after, running := c.sess.State(); !running {
		c.printResult()
	} else if after.Active == session.HumanSeat {
		c.print(Colorize(BrightYellow, "Your turn.") + "\n")
	}
	return nil
}

func (c *Console) printResult() {
	if r, ok := c.sess.Result(); ok {
		c.print(RenderResult(r))
	}
	if p, err := c.sess.Profile(); err == nil {
		c.print(RenderProfile(p))
	}
}

func builtinCommands() []commandDef {
	return []commandDef{
		{name: "help", aliases: []string{"?", "h"}, help: "list commands", fn: cmdHelp},
		{name: "status", aliases: []string{"profile", "st"}, help: "show purse, dice and the current match", fn: cmdStatus},
		{name: "shop", help: "list dice for sale", fn: cmdShop},
		{name: "collection", aliases: []string{"sets"}, help: "show dice set progress", fn: cmdCollection},
		{name: "buy", usage: "<die>", help: "buy one die", fn: cmdBuy},
		{name: "sell", usage: "<die>", help: "sell one die", fn: cmdSell},
		{name: "equip", usage: "<slot 1-6> <die>", help: "put a die in a loadout slot", fn: cmdEquip},
		{name: "difficulty", usage: "<easy|medium|hard>", help: "play the plain computer at a tier", fn: cmdDifficulty},
		{name: "challenger", aliases: []string{"challengers"}, usage: "[id|none]", help: "list or pick a challenger", fn: cmdChallenger},
		{name: "target", usage: "<score>", help: "set the target score against the plain computer", fn: cmdTarget},
		{name: "play", aliases: []string{"wager"}, usage: "<groschen>", help: "wager and start a match", fn: cmdPlay},
		{name: "roll", aliases: []string{"r"}, help: "roll the unlocked dice", fn: cmdRoll},
		{name: "select", aliases: []string{"s"}, usage: "<dice...>", help: "select exactly these dice", fn: cmdSelect},
		{name: "toggle", aliases: []string{"t"}, usage: "<die>", help: "toggle one die", fn: cmdToggle},
		{name: "commit", aliases: []string{"c"}, help: "set aside the selected dice", fn: cmdCommit},
		{name: "bank", aliases: []string{"b"}, help: "bank the turn score", fn: cmdBank},
		{name: "forfeit", help: "concede the match", fn: cmdForfeit},
		{name: "quit", aliases: []string{"exit", "q"}, help: "leave the tavern", fn: cmdQuit},
	}
}

func cmdHelp(_ context.Context, c *Console, _ []string) error {
	var b strings.Builder
	for _, def := range c.cmds {
		usage := def.name
		if def.usage != "" {
			usage += " " + def.usage
		}
		b.WriteString("  " + PadRight(Colorize(BrightWhite, usage), 32) + def.help)
		if len(def.aliases) > 0 {
			b.WriteString(Colorf(Dim, " (%s)", strings.Join(def.aliases, ", ")))
		}
		b.WriteString("\n")
	}
	c.print(b.String())
	return nil
}

func cmdStatus(_ context.Context, c *Console, _ []string) error {
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	c.print(RenderProfile(p))
	if sets := c.sess.Catalog().VisibleSets(p.Owned); len(sets) > 0 {
		c.print(RenderCollectionSummary(sets, p.Owned))
	}
	if st, running := c.sess.State(); running {
		c.print(RenderMatch(st))
	}
	return nil
}

func cmdShop(_ context.Context, c *Console, _ []string) error {
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	c.print(RenderShop(c.sess.Catalog().Purchasable(), p))
	c.print(Colorf(Dim, "Purse: %s", economy.FormatGroschen(p.Groschen)) + "\n")
	return nil
}

func cmdCollection(_ context.Context, c *Console, _ []string) error {
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	c.print(RenderCollection(c.sess.Catalog().VisibleSets(p.Owned), p.Owned))
	return nil
}

func oneArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}

func cmdBuy(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "buy <die>")
	if err != nil {
		return err
	}
	id := ParseVariant(arg)
	if err := c.sess.Buy(ctx, id); err != nil {
		return err
	}
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	c.printf("Bought a %s die. Purse: %s\n", id, economy.FormatGroschen(p.Groschen))
	return nil
}

func cmdSell(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "sell <die>")
	if err != nil {
		return err
	}
	id := ParseVariant(arg)
	credited, err := c.sess.Sell(ctx, id)
	if err != nil {
		return err
	}
	c.printf("Sold a %s die for %s.\n", id, economy.FormatGroschen(credited))
	return nil
}

func cmdEquip(ctx context.Context, c *Console, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: equip <slot 1-6> <die>")
	}
	slot, err := ParseSlot(args[0])
	if err != nil {
		return err
	}
	if err := c.sess.Equip(ctx, slot, ParseVariant(args[1])); err != nil {
		return err
	}
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	c.print(RenderProfile(p))
	return nil
}

func cmdDifficulty(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "difficulty <easy|medium|hard>")
	if err != nil {
		return err
	}
	d, err := ai.ParseDifficulty(arg)
	if err != nil {
		return err
	}
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	settings := p.Settings
	settings.Difficulty = d
	settings.ChallengerID = ""
	if err := c.sess.Configure(ctx, settings); err != nil {
		return err
	}
	c.printf("You will face the %s computer.\n", d)
	return nil
}

func cmdChallenger(ctx context.Context, c *Console, args []string) error {
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		c.print(RenderChallengers(c.sess.Challengers(), p.Settings.ChallengerID))
		return nil
	}
	settings := p.Settings
	settings.ChallengerID = strings.ToLower(args[0])
	if settings.ChallengerID == "none" {
		settings.ChallengerID = ""
	}
	if err := c.sess.Configure(ctx, settings); err != nil {
		return err
	}
	if settings.ChallengerID == "" {
		c.printf("You will face the %s computer.\n", settings.Difficulty)
		return nil
	}
	list := c.sess.Challengers()
	if i := slices.IndexFunc(list, func(ch catalog.Challenger) bool { return ch.ID == settings.ChallengerID }); i >= 0 {
		c.printf("%s takes a seat across from you.\n", list[i].Name)
	}
	return nil
}

func cmdTarget(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "target <score>")
	if err != nil {
		return err
	}
	n, err := ParseAmount(arg)
	if err != nil || n == 0 {
		return fmt.Errorf("%q is not a valid target", arg)
	}
	p, err := c.sess.Profile()
	if err != nil {
		return err
	}
	settings := p.Settings
	settings.TargetScore = n
	if err := c.sess.Configure(ctx, settings); err != nil {
		return err
	}
	c.printf("Matches against the plain computer now play to %s.\n", economy.FormatScore(n))
	return nil
}

func cmdPlay(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "play <groschen>")
	if err != nil {
		return err
	}
	wager, err := ParseAmount(arg)
	if err != nil {
		return err
	}
	balance, err := c.sess.OpenTable(ctx)
	if err != nil {
		return err
	}
	if wager > balance {
		return fmt.Errorf("you only have %s", economy.FormatGroschen(balance))
	}
	st, err := c.sess.StartMatch(ctx, wager)
	if err != nil {
		return err
	}
	c.printf("%s\n", Colorf(BrightYellow, "%s vs %s. First to %s.",
		st.Players[session.HumanSeat].Name, st.Players[session.ComputerSeat].Name, economy.FormatScore(st.TargetScore)))
	c.print(RenderMatch(st))
	return nil
}

func cmdRoll(ctx context.Context, c *Console, _ []string) error {
	return c.act(ctx, match.Roll{})
}

func cmdSelect(ctx context.Context, c *Console, args []string) error {
	idx, err := ParseDice(args)
	if err != nil {
		return err
	}
	if len(idx) == 0 {
		return errors.New("usage: select <dice...>")
	}
	return c.act(ctx, match.Select{Indices: idx})
}

func cmdToggle(ctx context.Context, c *Console, args []string) error {
	arg, err := oneArg(args, "toggle <die>")
	if err != nil {
		return err
	}
	i, err := ParseSlot(arg)
	if err != nil {
		return err
	}
	return c.act(ctx, match.Toggle{Index: i})
}

func cmdCommit(ctx context.Context, c *Console, _ []string) error {
	return c.act(ctx, match.Commit{})
}

func cmdBank(ctx context.Context, c *Console, _ []string) error {
	return c.act(ctx, match.Bank{})
}

func cmdForfeit(ctx context.Context, c *Console, _ []string) error {
	return c.act(ctx, match.Forfeit{Player: session.HumanSeat})
}

func cmdQuit(_ context.Context, _ *Console, _ []string) error {
	return errQuit
}
