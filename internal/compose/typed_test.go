package compose

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/schema"
)

type Person struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	DogID int    `db:"dog_id"`
}

type Dog struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Breed string `db:"breed"`
	Good  bool   `db:"good"`
}

type NameRow struct {
	Name string `db:"name"`
}

type DB struct {
	People Table[Person]
	Dogs   Table[Dog]
}

type WithCharles struct {
	DB
	Charles Table[Person]
}

type WithPauls struct {
	WithCharles
	Pauls Table[Person]
}

func db() DB {
	return DB{People: T[Person]("people"), Dogs: T[Dog]("dogs")}
}

func charlesQuery(c TypedCreator[DB]) Select[Person] {
	return SelectFrom(c, c.Tables.People).Where("name", "=", "Charles")
}

func addCharles(v DB, t Table[Person]) WithCharles {
	return WithCharles{DB: v, Charles: t}
}

func addPauls(v WithCharles, t Table[Person]) WithPauls {
	return WithPauls{WithCharles: v, Pauls: t}
}

func startCharles(t *testing.T) Chain[WithCharles] {
	t.Helper()
	start, err := Start(db())
	require.NoError(t, err)
	chain, err := With(start, "charles", charlesQuery, addCharles)
	require.NoError(t, err)
	return chain
}

func TestStart(t *testing.T) {
	chain, err := Start(db())
	require.NoError(t, err)
	assert.Equal(t, []string{"dogs", "people"}, chain.View().Names())
	assert.Equal(t, "people", chain.Tables().People.Name())
	assert.Equal(t, 0, chain.Composer().Len())
}

func TestStart_Rejects(t *testing.T) {
	type notAView struct {
		People Table[Person]
		Count  int
	}
	_, err := Start(notAView{People: T[Person]("people")})
	assert.True(t, schema.IsMismatch(err))

	_, err = Start(DB{People: T[Person]("people")})
	assert.True(t, schema.IsEmptyName(err))

	_, err = Start(DB{People: T[Person]("people"), Dogs: T[Dog]("people")})
	assert.True(t, schema.IsConflict(err))

	_, err = Start(42)
	assert.True(t, schema.IsMismatch(err))
}

func TestTyped_RedeclareStrategy(t *testing.T) {
	chain := startCharles(t)
	assert.Equal(t, "charles", chain.Tables().Charles.Name())

	pauls := func(c TypedCreator[WithCharles]) Select[Person] {
		return SelectFrom(c, c.Tables.People).Where("name", "=", "Paul")
	}
	next, err := With(chain, "pauls", pauls, addPauls)
	require.NoError(t, err)

	assert.Equal(t, []string{"dogs", "people", "charles", "pauls"}, next.View().Names())
	assert.Equal(t, "pauls", next.Tables().Pauls.Name())
	assert.Equal(t, "charles", next.Tables().Charles.Name())

	// The narrow definition has a different type than the one the wider
	// chain expects, so passing it to With does not compile.
	narrow := reflect.TypeOf(Query[DB, Person](charlesQuery))
	wide := reflect.TypeOf(Query[WithCharles, Person](nil))
	assert.False(t, narrow.AssignableTo(wide))
}

func TestTyped_DeferStrategy(t *testing.T) {
	chain := startCharles(t)

	// Written against the base view only.
	pauls := func(c TypedCreator[DB]) Select[Person] {
		return SelectFrom(c, c.Tables.People).Where("name", "=", "Paul")
	}

	next, err := WithDeferred(chain, "pauls", Defer(db(), pauls), addPauls)
	require.NoError(t, err)
	assert.Equal(t, []string{"dogs", "people", "charles", "pauls"}, next.View().Names())
}

func TestTyped_DeferStrategyMismatchOnInvocation(t *testing.T) {
	start, err := Start(db())
	require.NoError(t, err)

	// A handle for a CTE that does not exist yet resolves only by name.
	ghost := struct{ Ghost Table[Person] }{Ghost: T[Person]("ghost")}
	q := func(c TypedCreator[struct{ Ghost Table[Person] }]) Select[Person] {
		return SelectFrom(c, c.Tables.Ghost)
	}

	_, err = WithDeferred(start, "x", Defer(ghost, q), addCharles)
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestTyped_Widen(t *testing.T) {
	chain := startCharles(t)

	paulsNarrow := func(c TypedCreator[DB]) Select[Person] {
		return SelectFrom(c, c.Tables.People).Where("name", "=", "Paul")
	}
	widened := Widen(paulsNarrow, func(w WithCharles) DB { return w.DB })

	next, err := With(chain, "pauls", widened, addPauls)
	require.NoError(t, err)
	assert.True(t, next.View().Has("pauls"))

	assert.Nil(t, Widen[DB, WithCharles, Person](nil, func(w WithCharles) DB { return w.DB }))
}

func TestTyped_ConflictDoesNotEvaluate(t *testing.T) {
	chain := startCharles(t)

	evaluated := false
	again := func(c TypedCreator[WithCharles]) Select[Person] {
		evaluated = true
		return SelectFrom(c, c.Tables.People)
	}
	_, err := With(chain, "charles", again, func(v WithCharles, t Table[Person]) WithCharles { return v })
	assert.True(t, schema.IsConflict(err))
	assert.False(t, evaluated)
}

func TestTyped_RowTypeMustBeCovered(t *testing.T) {
	start, err := Start(db())
	require.NoError(t, err)

	// Projects only name but claims Person rows.
	q := func(c TypedCreator[DB]) Select[Person] {
		return Project[Person](SelectFrom(c, c.Tables.People), "name")
	}
	_, err = With(start, "charles", q, addCharles)
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))
	assert.Contains(t, err.Error(), "row type needs")
}

func TestTyped_ViewTypeMustMatch(t *testing.T) {
	start, err := Start(db())
	require.NoError(t, err)

	// The constructor drops the new handle and points at a name nobody registered.
	_, err = With(start, "charles", charlesQuery, func(v DB, _ Table[Person]) WithCharles {
		return WithCharles{DB: v, Charles: T[Person]("carl")}
	})
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))

	// The constructor forgets the new handle.
	_, err = With(start, "charles", charlesQuery, func(v DB, _ Table[Person]) DB { return v })
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))
	assert.Contains(t, err.Error(), "no handle for this view entry")

	// The constructor names the new entry twice.
	type twice struct {
		DB
		A Table[Person]
		B Table[Person]
	}
	_, err = With(start, "charles", charlesQuery, func(v DB, h Table[Person]) twice {
		return twice{DB: v, A: h, B: h}
	})
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))

	_, err = With[DB, WithCharles](start, "charles", charlesQuery, nil)
	assert.True(t, schema.IsMismatch(err))
}

func TestTyped_NilQuery(t *testing.T) {
	start, err := Start(db())
	require.NoError(t, err)

	_, err = With(start, "charles", Query[DB, Person](nil), addCharles)
	assert.True(t, schema.IsMismatch(err))
}

func TestTyped_Build(t *testing.T) {
	chain := startCharles(t)

	final := func(c TypedCreator[WithCharles]) Select[NameRow] {
		return Project[NameRow](
			SelectFrom(c, c.Tables.Charles).InnerJoin(c.Tables.Dogs, c.Tables.Charles.Col("dog_id"), c.Tables.Dogs.Col("id")),
			"charles.name",
		)
	}
	stmt, err := Build(chain, final)
	require.NoError(t, err)
	assert.Equal(t, []string{"charles"}, stmt.CTENames())
	assert.Equal(t, schema.RowShape{"name": schema.TypeString}, stmt.Shape)
	require.Len(t, stmt.Query.Body.Joins, 1)
	assert.Equal(t, "dogs", stmt.Query.Body.Joins[0].Table)

	wrongRows := func(c TypedCreator[WithCharles]) Select[Dog] {
		return Project[Dog](SelectFrom(c, c.Tables.Charles), "name")
	}
	_, err = Build(chain, wrongRows)
	assert.True(t, schema.IsMismatch(err))
}

func TestTyped_NullFilters(t *testing.T) {
	start, err := Start(db())
	require.NoError(t, err)

	q := func(c TypedCreator[DB]) Select[Person] {
		return SelectFrom(c, c.Tables.People).WhereNull("dog_id").WhereNotNull("name")
	}
	chain, err := With(start, "strays", q, addCharles)
	require.NoError(t, err)

	ctes := chain.Composer().CTEs()
	require.Len(t, ctes, 1)
	assert.NotNil(t, ctes[0].Query.Filter)
	assert.NotNil(t, SelectFrom(TypedCreator[DB]{}, T[Person]("people")).Builder())
}
