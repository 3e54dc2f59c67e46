package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	zmanim "go.zmanim.dev/pkg"
)

func main() {
	formula := flag.String("formula", "", "formula to evaluate")
	date := flag.String("date", time.Now().Format("2006-01-02"), "civil date (YYYY-MM-DD)")
	lat := flag.Float64("lat", 31.778, "latitude in degrees, south negative")
	long := flag.Float64("long", 35.235, "longitude in degrees, west negative")
	elevation := flag.Float64("elevation", 0, "observer elevation in meters")
	tzName := flag.String("tz", "UTC", "IANA time zone name")
	flag.Parse()

	if *formula == "" {
		fmt.Fprintln(os.Stderr, "usage: zmanim -formula <expr> [-date YYYY-MM-DD] [-lat N] [-long N] [-elevation N] [-tz name]")
		os.Exit(2)
	}

	tz, err := time.LoadLocation(*tzName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unknown time zone:", *tzName)
		os.Exit(2)
	}

	day, err := time.ParseInLocation("2006-01-02", *date, tz)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad date:", *date)
		os.Exit(2)
	}

	f, err := zmanim.Compile(*formula)
	if err != nil {
		if list, ok := err.(zmanim.ErrorList); ok {
			printErrors(list)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	ctx := zmanim.NewEvalContext(day, *lat, *long, *elevation, tz)
	v, err := f.Eval(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(v)
}

func printErrors(errors zmanim.ErrorList) {
	for _, err := range errors {
		switch e := err.(type) {
		case *zmanim.SyntaxError:
			fmt.Println("Syntax error:", e.Message, "at", e.Loc())
		case *zmanim.TypeError:
			fmt.Println("Type error:", e.Message, "at", e.Loc())
		case *zmanim.UndefinedFunctionError:
			fmt.Println("Undefined function:", e.Name, "at", e.Loc())
		case *zmanim.ArityError:
			fmt.Println("Wrong argument count for", e.Name, "at", e.Loc())
		case *zmanim.RangeError:
			fmt.Println("Out of range:", e.Param, "of", e.Name, "at", e.Loc())
		case *zmanim.BaseSlotError:
			fmt.Println("Bad base argument for", e.Name, "at", e.Loc())
		case *zmanim.DirectionSlotError:
			fmt.Println("Bad direction argument for", e.Name, "at", e.Loc())
		case *zmanim.UndefinedReferenceError:
			fmt.Println("Undefined reference:", "@"+e.Key, "at", e.Loc())
		default:
			fmt.Println(err)
		}
	}
}
