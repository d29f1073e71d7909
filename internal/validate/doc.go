// Package validate provides pure input validation for Lovi Core.
//
// Every validator either returns the normalised value or an *Error naming
// the offending field and the reason. Validators never mutate global state
// and have no dependencies on the rest of the codebase, so both the device
// layer and the API client can use them without import cycles.
//
// # Usage
//
//	host, err := validate.Host("192.168.1.50")
//	if err != nil {
//	    var verr *validate.Error
//	    if errors.As(err, &verr) {
//	        log.Warn("bad input", "field", verr.Field)
//	    }
//	}
//
// All errors wrap ErrInvalid, so errors.Is(err, validate.ErrInvalid) holds
// for every validation failure.
package validate
