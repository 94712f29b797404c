package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/config"
	"github.com/oumg-gold/oumg-console/internal/db"
	"github.com/oumg-gold/oumg-console/internal/render"
	"github.com/oumg-gold/oumg-console/internal/scheduler"
	"github.com/oumg-gold/oumg-console/internal/session"
)

type Awaiting string

const (
	AwaitNone Awaiting = ""

	AwaitSignInWallet Awaiting = "signin_wallet"
	AwaitAddOperator  Awaiting = "add_operator"
	AwaitThreshold    Awaiting = "threshold"

	AwaitManualBase Awaiting = "manual_base"
	AwaitManualBuy  Awaiting = "manual_buy"
	AwaitManualSell Awaiting = "manual_sell"
	AwaitManualNote Awaiting = "manual_note"

	AwaitMintWallet Awaiting = "mint_wallet"
	AwaitMintGrams  Awaiting = "mint_grams"
	AwaitBurnWallet Awaiting = "burn_wallet"
	AwaitBurnGrams  Awaiting = "burn_grams"

	AwaitFundWallet Awaiting = "fund_wallet"
	AwaitFundAmount Awaiting = "fund_amount"

	AwaitLedgerDate    Awaiting = "ledger_date"
	AwaitLedgerGrams   Awaiting = "ledger_grams"
	AwaitLedgerDetails Awaiting = "ledger_details"

	AwaitRedemptionNote Awaiting = "redemption_note"
)

// skipToken lets operators leave an optional field blank in input flows.
const skipToken = "-"

type state struct {
	Await Awaiting

	// flow scratch, cleared with the Await
	Wallet string
	Grams  float64
	Manual api.ManualPriceUpdate
	Ledger api.GoldLedgerEntry

	RedemptionID     string
	RedemptionStatus string
}

type App struct {
	cfg config.Config
	db  *db.DB
	api *api.Client

	bot   *tgbotapi.BotAPI
	sched *scheduler.Scheduler

	stateMu sync.Mutex
	states  map[int64]*state // by operator user id

	dataDir string
	dbPath  string
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(cfg.DataDir, "console.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := database.SeedOperators(context.Background(), cfg.InitialOperatorIDs); err != nil {
		_ = database.Close()
		return nil, err
	}

	b, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	b.Debug = cfg.Debug

	app := &App{
		cfg:     cfg,
		db:      database,
		api:     api.NewClient(cfg.APIBase),
		bot:     b,
		states:  map[int64]*state{},
		dataDir: cfg.DataDir,
		dbPath:  dbPath,
	}
	app.sched = scheduler.New(database, app.api, app, cfg.RefreshMinutes, cfg.AlertThresholdBps, cfg.ServiceWallet)
	return app, nil
}

func (a *App) Close() {
	if a.sched != nil {
		a.sched.Stop()
	}
	_ = a.db.Close()
}

func (a *App) Run() error {
	log.Printf("Bot authorized as @%s", a.bot.Self.UserName)

	a.sched.Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	for upd := range a.bot.GetUpdatesChan(u) {
		a.handleUpdate(upd)
	}
	return nil
}

// NotifyOperators implements scheduler.Notifier.
func (a *App) NotifyOperators(ctx context.Context, text string) {
	ops, err := a.db.ListOperators(ctx)
	if err != nil {
		return
	}
	for _, op := range ops {
		_, _ = a.bot.Send(tgbotapi.NewMessage(op.UserID, text))
	}
}

func (a *App) handleUpdate(upd tgbotapi.Update) {
	if upd.Message != nil {
		a.handleMessage(*upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		a.handleCallback(*upd.CallbackQuery)
		return
	}
}

func (a *App) ensureState(userID int64) *state {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	s, ok := a.states[userID]
	if !ok {
		s = &state{}
		a.states[userID] = s
	}
	return s
}

func (a *App) clearAwait(userID int64) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if s, ok := a.states[userID]; ok {
		*s = state{}
	}
}

// adminSession loads the operator's stored sign-in. found is false when
// there is none or it has expired.
func (a *App) adminSession(ctx context.Context, userID int64) (session.Session, bool) {
	sess, found, err := a.db.GetSession(ctx, userID)
	if err != nil || !found {
		return session.Session{}, false
	}
	if !sess.Valid() {
		_ = a.db.ClearSession(ctx, userID)
		return session.Session{}, false
	}
	return sess, true
}

// reportAPIError sends the failure to the operator. An auth failure also
// drops the stored session so the next attempt prompts a fresh sign-in.
func (a *App) reportAPIError(ctx context.Context, userID int64, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.IsAuth() {
		_ = a.db.ClearSession(ctx, userID)
		a.send(userID, "⛔️ The backend rejected your admin session. Sign in again from the main menu.")
		return
	}
	a.send(userID, "❌ Backend error: "+err.Error())
}

func (a *App) handleMessage(msg tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.Type != "private" || msg.From == nil {
		return
	}
	userID := msg.From.ID
	ctx := context.Background()

	// First private user becomes the super operator when nobody was
	// configured at install time.
	ops, err := a.db.ListOperators(ctx)
	if err == nil && len(ops) == 0 {
		_ = a.db.AddOperator(ctx, userID, true)
		a.send(userID, "✅ You are now the primary operator (no operator ids were configured at install).")
	}

	isOp, isSuper, _ := a.db.IsOperator(ctx, userID)
	if !isOp {
		a.send(userID, "⛔️ Access denied. Ask the primary operator to add your user id.")
		return
	}

	st := a.ensureState(userID)
	if st.Await != AwaitNone {
		a.handleAwaitMessage(ctx, msg, st, isSuper)
		return
	}

	a.sendMainMenu(ctx, userID, msg.MessageID)
}

func (a *App) handleAwaitMessage(ctx context.Context, msg tgbotapi.Message, st *state, isSuper bool) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch st.Await {
	case AwaitSignInWallet:
		a.onSignInWallet(ctx, userID, text)

	case AwaitAddOperator:
		a.onAddOperator(ctx, msg, isSuper)

	case AwaitThreshold:
		bps, err := strconv.ParseInt(text, 10, 64)
		if err != nil || bps < 0 {
			a.send(userID, "Send a whole number of basis points (0 disables the alert).")
			return
		}
		_ = a.db.SetGlobalSetting(ctx, "alert_threshold_bps", strconv.FormatInt(bps, 10))
		a.clearAwait(userID)
		a.send(userID, fmt.Sprintf("✅ Alert threshold set to %d bps.", bps))
		a.sendMainMenu(ctx, userID, 0)

	case AwaitManualBase, AwaitManualBuy, AwaitManualSell, AwaitManualNote:
		a.onManualPriceInput(ctx, userID, st, text)

	case AwaitMintWallet, AwaitBurnWallet, AwaitFundWallet:
		w := session.NormalizeAddress(text)
		if w == "" {
			a.send(userID, "That does not look like a wallet address (0x + 40 hex chars). Try again.")
			return
		}
		st.Wallet = w
		switch st.Await {
		case AwaitMintWallet:
			st.Await = AwaitMintGrams
			a.send(userID, "How many grams to mint?")
		case AwaitBurnWallet:
			st.Await = AwaitBurnGrams
			a.send(userID, "How many grams to burn?")
		default:
			st.Await = AwaitFundAmount
			a.send(userID, "How much RM credit to add?")
		}

	case AwaitMintGrams, AwaitBurnGrams:
		g, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || g <= 0 {
			a.send(userID, "Send a positive number of grams.")
			return
		}
		st.Grams = g
		if st.Await == AwaitMintGrams {
			a.confirmMint(ctx, userID, st)
		} else {
			a.confirmBurn(userID, st)
		}

	case AwaitFundAmount:
		amt, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || amt <= 0 {
			a.send(userID, "Send a positive RM amount.")
			return
		}
		wallet := st.Wallet
		a.clearAwait(userID)
		sess, ok := a.adminSession(ctx, userID)
		if !ok {
			a.send(userID, needSignIn)
			return
		}
		if err := a.api.FundPreset(ctx, sess, wallet, amt); err != nil {
			a.reportAPIError(ctx, userID, err)
			return
		}
		a.send(userID, fmt.Sprintf("✅ Funded %s with %s.", shortAddr(wallet), render.MYRValue(amt)))

	case AwaitLedgerDate, AwaitLedgerGrams, AwaitLedgerDetails:
		a.onLedgerInput(ctx, userID, st, text)

	case AwaitRedemptionNote:
		id, status := st.RedemptionID, st.RedemptionStatus
		a.clearAwait(userID)
		if id == "" {
			return
		}
		note := text
		if note == skipToken {
			note = ""
		}
		sess, ok := a.adminSession(ctx, userID)
		if !ok {
			a.send(userID, needSignIn)
			return
		}
		if err := a.api.UpdateRedemption(ctx, sess, id, api.RedemptionPatch{Status: status, Note: note}); err != nil {
			a.reportAPIError(ctx, userID, err)
			return
		}
		a.send(userID, "✅ Redemption "+strings.ToLower(status)+".")
		a.sendRedemptionsMenu(ctx, userID, 0, api.RedemptionPending, 0)

	default:
		a.clearAwait(userID)
	}
}

const needSignIn = "🔑 You need a verified admin sign-in first. Use the main menu."

func (a *App) onSignInWallet(ctx context.Context, userID int64, text string) {
	wallet := session.NormalizeAddress(text)
	if wallet == "" {
		a.send(userID, "That does not look like a wallet address (0x + 40 hex chars). Try again.")
		return
	}
	a.clearAwait(userID)

	ok, err := a.api.VerifyAdmin(ctx, wallet)
	if err != nil {
		a.send(userID, "❌ Could not reach the backend: "+err.Error())
		return
	}
	if !ok {
		a.send(userID, "⛔️ That wallet is not on the backend's admin whitelist.")
		return
	}
	sess, _ := session.New(wallet)
	if err := a.db.SaveSession(ctx, userID, sess); err != nil {
		a.send(userID, "❌ Could not store the session: "+err.Error())
		return
	}
	a.send(userID, "✅ Signed in as "+shortAddr(wallet)+". The sign-in is valid for 7 days.")
	a.sendMainMenu(ctx, userID, 0)
}

func (a *App) onAddOperator(ctx context.Context, msg tgbotapi.Message, isSuper bool) {
	userID := msg.From.ID
	if !isSuper {
		a.send(userID, "⛔️ Only the primary operator can add operators.")
		a.clearAwait(userID)
		return
	}
	var newID int64
	if msg.ForwardFrom != nil {
		newID = msg.ForwardFrom.ID
	} else if id, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64); err == nil {
		newID = id
	}
	if newID == 0 {
		a.send(userID, "Forward a message from the user, or send their numeric user id.")
		return
	}
	_ = a.db.AddOperator(ctx, newID, false)
	a.clearAwait(userID)
	a.send(userID, fmt.Sprintf("✅ Operator added: %d", newID))
	a.sendOperatorsMenu(ctx, userID, 0)
}

// onManualPriceInput walks the new-pricing-sheet flow: base, buy, sell,
// note, each skippable, then a confirm keyboard.
func (a *App) onManualPriceInput(ctx context.Context, userID int64, st *state, text string) {
	setF := func(dst **float64) bool {
		if text == skipToken {
			return true
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || v < 0 {
			a.send(userID, "Send a number, or \""+skipToken+"\" to leave it blank.")
			return false
		}
		*dst = &v
		return true
	}

	switch st.Await {
	case AwaitManualBase:
		if !setF(&st.Manual.MyrPerG) {
			return
		}
		st.Await = AwaitManualBuy
		a.send(userID, "Buy price (MYR/g)? Send \""+skipToken+"\" to let the backend derive it.")
	case AwaitManualBuy:
		if !setF(&st.Manual.MyrPerGBuy) {
			return
		}
		st.Await = AwaitManualSell
		a.send(userID, "Sell price (MYR/g)? Send \""+skipToken+"\" to let the backend derive it.")
	case AwaitManualSell:
		if !setF(&st.Manual.MyrPerGSell) {
			return
		}
		st.Await = AwaitManualNote
		a.send(userID, "A note for the audit trail? Send \""+skipToken+"\" for none.")
	case AwaitManualNote:
		if text != skipToken {
			st.Manual.Note = text
		}
		st.Await = AwaitNone
		if st.Manual.MyrPerG == nil && st.Manual.MyrPerGBuy == nil && st.Manual.MyrPerGSell == nil {
			a.clearAwait(userID)
			a.send(userID, "All prices were skipped; nothing to publish.")
			return
		}
		var b strings.Builder
		b.WriteString("📋 New pricing sheet\n\n")
		b.WriteString("Base: " + render.MYR(st.Manual.MyrPerG) + "\n")
		b.WriteString("Buy: " + render.MYR(st.Manual.MyrPerGBuy) + "\n")
		b.WriteString("Sell: " + render.MYR(st.Manual.MyrPerGSell) + "\n")
		if st.Manual.Note != "" {
			b.WriteString("Note: " + st.Manual.Note + "\n")
		}
		b.WriteString("\nPublish to the backend?")
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Publish", "manualgo"),
				tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel"),
			),
		)
		a.sendWithKeyboard(userID, b.String(), kb)
	}
}

func (a *App) confirmMint(ctx context.Context, userID int64, st *state) {
	st.Await = AwaitNone

	// Cost preview uses the current effective user-buy price; the
	// configured fallback keeps the preview usable when the backend has
	// no sheet yet.
	price := a.cfg.FallbackPriceMYR
	suffix := " (fallback price)"
	if snap, err := a.api.CurrentPrice(ctx); err == nil {
		if p, ok := snap.EffectiveUserBuy(); ok {
			price, suffix = p, ""
		}
	}
	cost := st.Grams * price

	text := fmt.Sprintf("🪙 Mint %s g to %s\nEstimated value: %s%s\n\nProceed?",
		strconv.FormatFloat(st.Grams, 'f', -1, 64), shortAddr(st.Wallet), render.MYRValue(cost), suffix)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Mint", "mintgo"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel"),
		),
	)
	a.sendWithKeyboard(userID, text, kb)
}

func (a *App) confirmBurn(userID int64, st *state) {
	st.Await = AwaitNone
	text := fmt.Sprintf("🔥 Burn %s g from %s\n\nProceed?",
		strconv.FormatFloat(st.Grams, 'f', -1, 64), shortAddr(st.Wallet))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Burn", "burngo"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel"),
		),
	)
	a.sendWithKeyboard(userID, text, kb)
}

// onLedgerInput collects a gold ledger entry: date, grams, then the
// optional detail fields in one "key: value" message.
func (a *App) onLedgerInput(ctx context.Context, userID int64, st *state, text string) {
	switch st.Await {
	case AwaitLedgerDate:
		if text == skipToken {
			st.Ledger.EntryDate = todayKL()
		} else {
			if _, err := time.Parse("2006-01-02", text); err != nil {
				a.send(userID, "Send the date as YYYY-MM-DD, or \""+skipToken+"\" for today.")
				return
			}
			st.Ledger.EntryDate = text
		}
		st.Await = AwaitLedgerGrams
		a.send(userID, "Intake in grams?")
	case AwaitLedgerGrams:
		g, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil || g <= 0 {
			a.send(userID, "Send a positive number of grams.")
			return
		}
		st.Ledger.IntakeG = g
		st.Await = AwaitLedgerDetails
		a.send(userID, "Optional details, one per line (source, purity_bp, serial, batch, storage, custody, insurance, audit_ref, note as \"key: value\"), or \""+skipToken+"\" for none.")
	case AwaitLedgerDetails:
		if text != skipToken {
			applyLedgerDetails(&st.Ledger, text)
		}
		entry := st.Ledger
		a.clearAwait(userID)
		sess, ok := a.adminSession(ctx, userID)
		if !ok {
			a.send(userID, needSignIn)
			return
		}
		created, err := a.api.CreateGoldLedger(ctx, sess, entry)
		if err != nil {
			a.reportAPIError(ctx, userID, err)
			return
		}
		a.send(userID, "✅ Ledger entry recorded.\n"+render.LedgerRow(created))
	}
}

func applyLedgerDetails(e *api.GoldLedgerEntry, text string) {
	for _, line := range strings.Split(text, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "source":
			e.Source = val
		case "purity_bp", "purity":
			if bp, err := strconv.ParseInt(val, 10, 64); err == nil {
				e.PurityBp = &bp
			}
		case "serial":
			e.Serial = val
		case "batch":
			e.Batch = val
		case "storage":
			e.Storage = val
		case "custody":
			e.Custody = val
		case "insurance":
			e.Insurance = val
		case "audit_ref", "audit":
			e.AuditRef = val
		case "note":
			e.Note = val
		}
	}
}

func (a *App) send(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.DisableWebPagePreview = true
	_, _ = a.bot.Send(msg)
}

func (a *App) sendWithKeyboard(userID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = kb
	msg.DisableWebPagePreview = true
	_, _ = a.bot.Send(msg)
}

func (a *App) editOrSendMenu(userID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if msgID != 0 {
		edit := tgbotapi.NewEditMessageText(userID, msgID, text)
		edit.ReplyMarkup = &kb
		edit.DisableWebPagePreview = true
		if _, err := a.bot.Request(edit); err == nil {
			return
		}
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = kb
	msg.DisableWebPagePreview = true
	_, _ = a.bot.Send(msg)
}

func shortAddr(w string) string {
	if len(w) <= 12 {
		return w
	}
	return w[:8] + "…" + w[len(w)-4:]
}
