// Command storefront is a headless driver for the storefront client: it
// wires the request gateway and controllers and runs one-shot operations
// against the backend (or the stub server) from the command line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emeraldsecrets.org/storefront/internal/affiliate"
	"emeraldsecrets.org/storefront/internal/cart"
	"emeraldsecrets.org/storefront/internal/catalog"
	"emeraldsecrets.org/storefront/internal/config"
	"emeraldsecrets.org/storefront/internal/format"
	"emeraldsecrets.org/storefront/internal/gateway"
	"emeraldsecrets.org/storefront/internal/ui"
)

func main() {
	var (
		cfgPath    string
		backend    string
		verbose    bool
		yes        bool
		addArg     string
		updateArg  string
		removeArg  int
		couponArg  string
		clearCart  bool
		searchArg  string
		suggestArg string
		wishArg    int
		emailArg   string
		withdraw   string
		bankArg    string
		badgesFlag bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to YAML config")
	flag.StringVar(&backend, "backend", "", "backend base URL (overrides config)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&yes, "yes", false, "answer yes to confirmation prompts")
	flag.StringVar(&addArg, "add", "", "add to cart, as productID:quantity")
	flag.StringVar(&updateArg, "update", "", "update cart line, as itemID:quantity")
	flag.IntVar(&removeArg, "remove", 0, "remove cart line by item id")
	flag.StringVar(&couponArg, "coupon", "", "apply coupon code")
	flag.BoolVar(&clearCart, "clear", false, "clear the cart")
	flag.StringVar(&searchArg, "search", "", "navigate to search results")
	flag.StringVar(&suggestArg, "suggest", "", "fetch autocomplete suggestions")
	flag.IntVar(&wishArg, "wishlist", 0, "toggle wishlist for product id")
	flag.StringVar(&emailArg, "newsletter", "", "subscribe email to the newsletter")
	flag.StringVar(&withdraw, "withdraw", "", "request affiliate withdrawal amount")
	flag.StringVar(&bankArg, "bank", "", "update bank details, as name,holder,account,ifsc")
	flag.BoolVar(&badgesFlag, "badges", false, "refresh and print badge counts")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if backend != "" {
		cfg.BackendURL = backend
	}

	log := newLogger(verbose)
	defer func() { _ = log.Sync() }()

	gw, err := gateway.NewClient(cfg.BackendURL,
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithLogger(log))
	if err != nil {
		log.Fatal("gateway", zap.Error(err))
	}

	toasts := ui.NewToaster(cfg.ToastTTL)
	defer toasts.Close()
	badges := ui.NewBadges(gw, cfg.Badges, log)
	loc := ui.NewLocation("/")
	confirm := stdinConfirm
	if yes {
		confirm = ui.ConfirmAll
	}
	clip := &ui.MemoryClipboard{}

	products := catalog.NewController(gw, loc, toasts, badges, log)
	basket := cart.NewController(gw, toasts, badges, confirm, log)
	aff := affiliate.NewController(gw, toasts, confirm, clip, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// CSRF token arrives with the first response; prime the jar.
	badges.Refresh(ctx)

	switch {
	case addArg != "":
		id, qty := parsePair(addArg, 1)
		_ = basket.Add(ctx, id, qty)
	case updateArg != "":
		id, qty := parsePair(updateArg, 1)
		_ = basket.UpdateQuantity(ctx, id, qty)
	case removeArg != 0:
		_ = basket.Remove(ctx, removeArg)
	case couponArg != "":
		_ = basket.ApplyCoupon(ctx, couponArg)
	case clearCart:
		_ = basket.Clear(ctx)
	case searchArg != "":
		if products.SearchProducts(searchArg) {
			fmt.Println("navigated to", loc.String())
		}
	case suggestArg != "":
		for _, s := range products.Suggest(ctx, suggestArg) {
			fmt.Println(s)
		}
	case wishArg != 0:
		_ = products.ToggleWishlist(ctx, wishArg)
	case emailArg != "":
		_ = products.SubscribeNewsletter(ctx, emailArg)
	case withdraw != "":
		amount, err := decimal.NewFromString(withdraw)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid amount:", withdraw)
			os.Exit(2)
		}
		if err := aff.RequestWithdrawal(ctx, amount); err == nil {
			fmt.Println("balance:", format.Currency(aff.Balance()))
		}
	case bankArg != "":
		parts := strings.SplitN(bankArg, ",", 4)
		if len(parts) != 4 {
			fmt.Fprintln(os.Stderr, "bank details must be name,holder,account,ifsc")
			os.Exit(2)
		}
		_ = aff.UpdateBankDetails(ctx, affiliate.BankDetails{
			BankName:      parts[0],
			AccountHolder: parts[1],
			AccountNumber: parts[2],
			IFSC:          parts[3],
		})
	case badgesFlag:
		// already refreshed above
	default:
		flag.Usage()
		os.Exit(2)
	}

	for _, t := range toasts.Active() {
		fmt.Printf("[%s] %s\n", t.Level, t.Message)
	}
	if badgesFlag {
		fmt.Printf("cart: %d, wishlist: %d\n",
			badges.Count(ui.BadgeCart), badges.Count(ui.BadgeWishlist))
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

// parsePair splits "id:qty" with a default quantity.
func parsePair(arg string, defQty int) (int, int) {
	parts := strings.SplitN(arg, ":", 2)
	id, _ := strconv.Atoi(parts[0])
	qty := defQty
	if len(parts) == 2 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			qty = n
		}
	}
	return id, qty
}

func stdinConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
