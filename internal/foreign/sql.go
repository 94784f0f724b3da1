package foreign

import (
	"database/sql"
	"fmt"
	"log/slog"
	"salinas/internal/object"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// dbHandle is a connection opened by SQLCONNECT, with the transaction
// started by SQLBEGIN if one is active.
type dbHandle struct {
	driver string
	db     *sql.DB
	tx     *sql.Tx
}

func (h *dbHandle) Close() error {
	if h.tx != nil {
		_ = h.tx.Rollback()
		h.tx = nil
	}
	return h.db.Close()
}

func (h *dbHandle) query(query string, params ...any) (*sql.Rows, error) {
	if h.tx != nil {
		return h.tx.Query(query, params...)
	}
	return h.db.Query(query, params...)
}

func (h *dbHandle) exec(query string, params ...any) (sql.Result, error) {
	if h.tx != nil {
		return h.tx.Exec(query, params...)
	}
	return h.db.Exec(query, params...)
}

func checkSQLEnabled(ctx object.EvaluatorContext) error {
	if !ctx.GetConfiguration().SQLEnabled {
		return object.NewFunctionCallError("SQL functions are disabled")
	}
	return nil
}

// connectionArg resolves the handle passed as the first argument.
func connectionArg(ctx object.EvaluatorContext, name string, arg *object.Value) (int64, *dbHandle, error) {
	n, err := numberArg(name, arg)
	if err != nil {
		return 0, nil, err
	}
	id := n.IntPart()
	item, ok := ctx.Handles().Get(id)
	h, isDB := item.(*dbHandle)
	if !ok || !isDB {
		return id, nil, object.NewFunctionCallError("Function %s: invalid connection handle %d", name, id)
	}
	return id, h, nil
}

func queryParams(name string, args []*object.Value) ([]any, error) {
	params := make([]any, len(args))
	for i, arg := range args {
		switch arg.Type() {
		case object.NULL_TYPE, object.UNDEFINED_TYPE:
			params[i] = nil
		case object.NUMBER_TYPE:
			n, _ := arg.AsNumber()
			if n.IsInteger() {
				params[i] = n.IntPart()
			} else {
				params[i] = n.InexactFloat64()
			}
		case object.STRING_TYPE:
			params[i], _ = arg.AsString()
		case object.BOOLEAN_TYPE:
			params[i], _ = arg.AsBool()
		default:
			return nil, object.NewFunctionCallError("Function %s: parameter %d of type %s cannot be bound", name, i+1, arg.Type())
		}
	}
	return params, nil
}

func fnSqlConnect() *object.Native {
	return &object.Native{
		FnName: "SQLCONNECT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkSQLEnabled(ctx); err != nil {
				return nil, err
			}
			if err := checkParameterCount("SQLCONNECT", 2, args); err != nil {
				return nil, err
			}
			driver, err := stringArg("SQLCONNECT", args[0])
			if err != nil {
				return nil, err
			}
			dsn, err := stringArg("SQLCONNECT", args[1])
			if err != nil {
				return nil, err
			}

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return nil, object.NewFunctionCallError("Function SQLCONNECT: failed to open connection: %v", err)
			}
			if driver == "sqlite3" {
				// every pooled connection to :memory: would get its own database
				db.SetMaxOpenConns(1)
			}
			if err := db.Ping(); err != nil {
				db.Close()
				return nil, object.NewFunctionCallError("Function SQLCONNECT: failed to ping database: %v", err)
			}

			id := ctx.NextHandleID()
			ctx.Handles().Put(id, &dbHandle{driver: driver, db: db})
			ctx.Logger().Debug("sql connection opened",
				slog.String("driver", driver),
				slog.Int64("handle", id))
			return object.NumberFromInt(id), nil
		},
	}
}

func fnSqlDisconnect() *object.Native {
	return &object.Native{
		FnName: "SQLDISCONNECT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkSQLEnabled(ctx); err != nil {
				return nil, err
			}
			if err := checkParameterCount("SQLDISCONNECT", 1, args); err != nil {
				return nil, err
			}
			id, h, err := connectionArg(ctx, "SQLDISCONNECT", args[0])
			if err != nil {
				return nil, err
			}
			ctx.Handles().Remove(id)
			if err := h.Close(); err != nil {
				return nil, object.NewFunctionCallError("Function SQLDISCONNECT: %v", err)
			}
			ctx.Logger().Debug("sql connection closed", slog.Int64("handle", id))
			return object.Boolean(true), nil
		},
	}
}

// SQLEXEC(handle, statement, params...) returns the number of affected rows.
func fnSqlExec() *object.Native {
	return &object.Native{
		FnName: "SQLEXEC",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkSQLEnabled(ctx); err != nil {
				return nil, err
			}
			if len(args) < 2 {
				return nil, object.NewFunctionCallError("Function SQLEXEC must be called with at least 2 parameters")
			}
			id, h, err := connectionArg(ctx, "SQLEXEC", args[0])
			if err != nil {
				return nil, err
			}
			statement, err := stringArg("SQLEXEC", args[1])
			if err != nil {
				return nil, err
			}
			params, err := queryParams("SQLEXEC", args[2:])
			if err != nil {
				return nil, err
			}

			ctx.Logger().Debug("sql exec",
				slog.Int64("handle", id),
				slog.String("sql", statement))
			result, err := h.exec(statement, params...)
			if err != nil {
				return nil, object.NewFunctionCallError("Function SQLEXEC: %v", err)
			}
			affected, _ := result.RowsAffected()
			return object.NumberFromInt(affected), nil
		},
	}
}

// SQLQUERY(handle, statement, params...) returns an array of rows, each row
// an array keyed by column name.
func fnSqlQuery() *object.Native {
	return &object.Native{
		FnName: "SQLQUERY",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkSQLEnabled(ctx); err != nil {
				return nil, err
			}
			if len(args) < 2 {
				return nil, object.NewFunctionCallError("Function SQLQUERY must be called with at least 2 parameters")
			}
			id, h, err := connectionArg(ctx, "SQLQUERY", args[0])
			if err != nil {
				return nil, err
			}
			statement, err := stringArg("SQLQUERY", args[1])
			if err != nil {
				return nil, err
			}
			params, err := queryParams("SQLQUERY", args[2:])
			if err != nil {
				return nil, err
			}

			ctx.Logger().Debug("sql query",
				slog.Int64("handle", id),
				slog.String("sql", statement))
			rows, err := h.query(statement, params...)
			if err != nil {
				return nil, object.NewFunctionCallError("Function SQLQUERY: %v", err)
			}
			defer rows.Close()

			result, err := renderRows(rows)
			if err != nil {
				return nil, object.NewFunctionCallError("Function SQLQUERY: %v", err)
			}
			return result, nil
		},
	}
}

func fnSqlBegin() *object.Native {
	return &object.Native{
		FnName: "SQLBEGIN",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			if err := checkSQLEnabled(ctx); err != nil {
				return nil, err
			}
			if err := checkParameterCount("SQLBEGIN", 1, args); err != nil {
				return nil, err
			}
			_, h, err := connectionArg(ctx, "SQLBEGIN", args[0])
			if err != nil {
				return nil, err
			}
			if h.tx != nil {
				return nil, object.NewFunctionCallError("Function SQLBEGIN: a transaction is already active")
			}
			tx, err := h.db.Begin()
			if err != nil {
				return nil, object.NewFunctionCallError("Function SQLBEGIN: failed to begin transaction: %v", err)
			}
			h.tx = tx
			return object.Boolean(true), nil
		},
	}
}

func fnSqlCommit() *object.Native {
	return &object.Native{
		FnName: "SQLCOMMIT",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			return endTransaction(ctx, "SQLCOMMIT", args, (*sql.Tx).Commit)
		},
	}
}

func fnSqlRollback() *object.Native {
	return &object.Native{
		FnName: "SQLROLLBACK",
		Fn: func(ctx object.EvaluatorContext, args ...*object.Value) (*object.Value, error) {
			return endTransaction(ctx, "SQLROLLBACK", args, (*sql.Tx).Rollback)
		},
	}
}

func endTransaction(ctx object.EvaluatorContext, name string, args []*object.Value, end func(*sql.Tx) error) (*object.Value, error) {
	if err := checkSQLEnabled(ctx); err != nil {
		return nil, err
	}
	if err := checkParameterCount(name, 1, args); err != nil {
		return nil, err
	}
	_, h, err := connectionArg(ctx, name, args[0])
	if err != nil {
		return nil, err
	}
	if h.tx == nil {
		return nil, object.NewFunctionCallError("Function %s: no active transaction", name)
	}
	tx := h.tx
	h.tx = nil
	if err := end(tx); err != nil {
		return nil, object.NewFunctionCallError("Function %s: %v", name, err)
	}
	return object.Boolean(true), nil
}

func renderRows(rows *sql.Rows) (*object.Value, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, _ := rows.ColumnTypes()

	result := object.NewArrayMap()
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := object.NewArrayMap()
		for i, col := range columns {
			var typeName string
			if i < len(types) {
				typeName = types[i].DatabaseTypeName()
			}
			row.Put(object.String(col), mapValue(values[i], typeName))
		}
		result.Append(object.Array(row))
	}
	return object.Array(result), rows.Err()
}

func mapValue(v interface{}, dbType string) *object.Value {
	switch x := v.(type) {
	case nil:
		return object.Null()
	case int64:
		return object.NumberFromInt(x)
	case float64:
		return object.Number(decimal.NewFromFloat(x))
	case []byte:
		switch dbType {
		case "DECIMAL", "NUMERIC":
			if d, err := decimal.NewFromString(string(x)); err == nil {
				return object.Number(d)
			}
		}
		return object.String(string(x))
	case string:
		return object.String(x)
	case bool:
		return object.Boolean(x)
	case time.Time:
		return object.String(x.Format(time.RFC3339))
	default:
		return object.String(fmt.Sprintf("%v", v))
	}
}
