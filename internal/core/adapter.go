package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/settlement/internal/sheet"
)

// adapter extracts canonical records from one partner's file. Adapters
// return the complete record set of a file or an error, never a partial
// set; the processor appends the result in a single call.
type adapter interface {
	process(ctx context.Context, path string) ([]Record, error)
}

// adapterFor dispatches a detected format to its adapter.
func (p *Processor) adapterFor(f Format) (adapter, error) {
	switch f {
	case FormatYes24:
		return yes24Adapter{p: p}, nil
	case FormatKyobo:
		return kyoboAdapter{p: p}, nil
	case FormatAladin:
		return aladinAdapter{}, nil
	default:
		return nil, ErrUndetectedFormat
	}
}

// openWorkbook checks the extension, then reads the file with the
// configured opener. Reader failures are wrapped as *ReadError.
func (p *Processor) openWorkbook(store Store, path string) (*sheet.Workbook, error) {
	if _, ok := sheet.KindOf(path); !ok {
		return nil, ErrUnsupportedExtension
	}

	wb, err := p.open(path)
	if err != nil {
		if errors.Is(err, sheet.ErrUnsupportedExtension) {
			return nil, ErrUnsupportedExtension
		}
		return nil, &ReadError{Store: store, Err: err}
	}
	return wb, nil
}

// extract runs the adapter, converting a panic anywhere in the reader or
// row logic into a *ReadError so one bad file cannot abort a batch.
func (p *Processor) extract(ctx context.Context, f Format, path string) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = &ReadError{Store: f.Store(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	a, err := p.adapterFor(f)
	if err != nil {
		return nil, err
	}
	return a.process(ctx, path)
}
